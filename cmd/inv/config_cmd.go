package main

import (
	"fmt"
	"net/url"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/invtrack/internal/config"
	"github.com/alfredjeanlab/invtrack/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration profiles",
	GroupID: "system",
	// Profile edits must work even when the active profile is broken.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.Setup(noColor || jsonOutput)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		c.DatabaseURL = redact(c.DatabaseURL)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		rows := [][2]string{
			{"profile", c.Profile},
			{"store", c.Store},
			{"database_url", c.DatabaseURL},
			{"nats_url", c.NATSURL},
			{"actor", c.Actor},
			{"metrics_addr", c.MetricsAddr},
			{"tracing", fmt.Sprint(c.Tracing)},
			{"sync_interval", c.SyncInterval.String()},
			{"sync_s3_bucket", c.SyncS3Bucket},
			{"sync_s3_key", c.SyncS3Key},
			{"sync_git_repo", c.SyncGitRepo},
			{"sync_git_file", c.SyncGitFile},
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\n", ui.RenderMuted(r[0]), r[1])
		}
		return w.Flush()
	},
}

var configAddCmd = &cobra.Command{
	Use:   "add <profile>",
	Short: "Add or replace a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p config.Profile
		p.Store, _ = cmd.Flags().GetString("store")
		p.DatabaseURL, _ = cmd.Flags().GetString("database-url")
		p.NATSURL, _ = cmd.Flags().GetString("nats-url")
		p.Actor, _ = cmd.Flags().GetString("actor-name")
		p.Tracing, _ = cmd.Flags().GetBool("tracing")
		p.SyncInterval, _ = cmd.Flags().GetString("sync-interval")
		p.SyncS3Bucket, _ = cmd.Flags().GetString("s3-bucket")
		p.SyncGitRepo, _ = cmd.Flags().GetString("git-repo")

		return editProfiles(func(f *config.File) error {
			f.Profiles[args[0]] = p
			if f.Active == "" {
				f.Active = args[0]
			}
			return nil
		}, fmt.Sprintf("profile %q saved", args[0]))
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use <profile>",
	Short: "Set the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProfiles(func(f *config.File) error {
			if _, ok := f.Profiles[args[0]]; !ok {
				return fmt.Errorf("profile %q not found", args[0])
			}
			f.Active = args[0]
			return nil
		}, fmt.Sprintf("active profile set to %q", args[0]))
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <profile>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editProfiles(func(f *config.File) error {
			if _, ok := f.Profiles[args[0]]; !ok {
				return fmt.Errorf("profile %q not found", args[0])
			}
			delete(f.Profiles, args[0])
			if f.Active == args[0] {
				f.Active = ""
			}
			return nil
		}, fmt.Sprintf("profile %q removed", args[0]))
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		f, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		if len(f.Profiles) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no profiles in %s\n", path)
			return nil
		}
		names := make([]string, 0, len(f.Profiles))
		for name := range f.Profiles {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tSTORE\tDATABASE")
		for _, name := range names {
			p := f.Profiles[name]
			marker := "  "
			if name == f.Active {
				marker = "* "
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\n", marker, name, p.Store, redact(p.DatabaseURL))
		}
		return w.Flush()
	},
}

// editProfiles loads the profile file, applies fn and saves it.
func editProfiles(fn func(*config.File) error, done string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	f, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := fn(&f); err != nil {
		return err
	}
	if err := config.SaveFile(path, f); err != nil {
		return err
	}
	fmt.Println(done)
	return nil
}

// redact hides the password of a database URL.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func init() {
	configAddCmd.Flags().String("store", "", "store backend (postgres or memory)")
	configAddCmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	configAddCmd.Flags().String("nats-url", "", "NATS server URL for events")
	configAddCmd.Flags().String("actor-name", "", "default acting user")
	configAddCmd.Flags().Bool("tracing", false, "write trace spans to stderr")
	configAddCmd.Flags().String("sync-interval", "", "export interval, e.g. 5m")
	configAddCmd.Flags().String("s3-bucket", "", "S3 bucket for exports")
	configAddCmd.Flags().String("git-repo", "", "git clone for exports")

	configCmd.AddCommand(configShowCmd, configListCmd, configAddCmd, configUseCmd, configRemoveCmd)
}
