package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/orm"
	"github.com/saltyorg/litemapper/internal/posts"
)

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.db.Tables()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <table>",
		Short: "Print every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			exists, err := a.db.TableExists(table)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("no such table: %s", table)
			}

			cur, err := a.db.Query("SELECT * FROM " + table)
			if err != nil {
				return err
			}
			defer cur.Close()

			for cur.Next() {
				fmt.Fprintln(cmd.OutOrStdout(), orm.Values(cur.Row()).String())
			}
			return cur.Err()
		},
	}
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show database file and table statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			names, err := a.db.Tables()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "path:   %s\n", a.db.Path())
			if st, err := os.Stat(a.db.Path()); err == nil {
				fmt.Fprintf(out, "size:   %s\n", humanize.IBytes(uint64(st.Size())))
				fmt.Fprintf(out, "mtime:  %s\n", humanize.Time(st.ModTime()))
			}
			fmt.Fprintf(out, "tables: %d\n", len(names))

			for _, name := range names {
				cur, err := a.db.Query("SELECT COUNT(*) AS n FROM " + name)
				if err != nil {
					return err
				}
				row, err := cur.FetchOne()
				if err != nil {
					return err
				}
				n, _ := orm.Values(row).Integer("n")
				fmt.Fprintf(out, "  %-24s %s rows\n", name, humanize.Comma(n))
			}
			return nil
		},
	}
}

func (a *app) maintenanceCmd(use, short string, run func(*database.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(a.db)
		},
	}
}

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write persisted settings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				all, err := a.store.GetAllSettings()
				if err != nil {
					return err
				}
				for _, key := range slices.Sorted(maps.Keys(all)) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, all[key])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				val, err := a.store.GetSetting(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), val)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Store one setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.store.SetSetting(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "unset <key>",
			Short: "Remove one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.store.DeleteSetting(args[0])
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Store defaults for settings that are not set",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.store.InitializeDefaults()
			},
		},
	)
	return cmd
}

func (a *app) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Write, edit and remove a sample post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			post := posts.New("Hello", "World")
			if err := post.Save(a.db); err != nil {
				return err
			}
			fmt.Fprintln(out, "saved:  ", post)

			id, _ := post.ID()
			loaded, err := posts.Posts.With(a.db).Get(id)
			if err != nil {
				return err
			}
			loaded.Text = "Mundo"
			if err := loaded.Update(a.db); err != nil {
				return err
			}
			fmt.Fprintln(out, "updated:", loaded.Show())

			if err := loaded.Delete(a.db); err != nil {
				return err
			}
			fmt.Fprintln(out, "deleted:", loaded)
			return a.db.Commit()
		},
	}
}
