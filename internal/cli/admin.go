package cli

import (
	"errors"
	"fmt"
)

type PasswordCmd struct {
	Password string `arg:"" help:"New admin password. Pass an empty string to clear it."`
}

func (c *PasswordCmd) Run(app *Context) error {
	if c.Password != "" && len(c.Password) < 4 {
		return errors.New("password must be at least 4 characters")
	}
	if err := app.Household.Settings.SetAdminPassword(c.Password); err != nil {
		return err
	}
	if c.Password == "" {
		fmt.Println("Admin password cleared")
	} else {
		fmt.Println("Admin password updated")
	}
	return nil
}

type ResetDataCmd struct {
	Yes bool `help:"Confirm wiping members, tasks, rewards and achievements."`
}

func (c *ResetDataCmd) Run(app *Context) error {
	if !c.Yes {
		return errors.New("refusing to reset without --yes")
	}
	if err := app.Household.ResetData(); err != nil {
		return err
	}
	fmt.Println("Household data reset; starter tasks and achievements restored")
	return nil
}

type TasksResetCmd struct {
	Kind string `arg:"" enum:"daily,weekly,all" help:"Which tasks to reset (daily, weekly, all)."`
}

func (c *TasksResetCmd) Run(app *Context) error {
	hh := app.Household
	switch c.Kind {
	case "daily":
		n, err := hh.ResetDailyTasks()
		if err != nil {
			return err
		}
		fmt.Printf("Reopened %d daily tasks\n", n)
	case "weekly":
		n, err := hh.ResetWeeklyTasks()
		if err != nil {
			return err
		}
		fmt.Printf("Reopened %d weekly tasks\n", n)
	case "all":
		if err := hh.ResetAllTasks(); err != nil {
			return err
		}
		fmt.Println("Task board replaced with starter tasks")
	}
	return nil
}

type LeaderboardCmd struct{}

func (c *LeaderboardCmd) Run(app *Context) error {
	members := app.Household.Members.Leaderboard()
	if len(members) == 0 {
		fmt.Println("No members yet")
		return nil
	}
	for i, m := range members {
		fmt.Printf("%2d. %-20s %6d pts\n", i+1, m.Name, m.Points)
	}
	return nil
}
