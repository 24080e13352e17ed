package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ideas-catalog/internal/config"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the sample configuration",
		Long:  "Writes the commented sample configuration to path (default ~/.config/ideas-catalog/config.toml).",
		Args:  cobra.MaximumNArgs(1),
		// The file may not exist or parse yet.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run:              runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		Run:   runConfigShow,
	}

	configCmd.AddCommand(initCmd, show)
	RootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	path := configFlag
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			exitErr("config path", err)
		}
		path = p
	} else {
		p, err := config.ExpandPath(path)
		if err != nil {
			exitErr("config path", err)
		}
		path = p
	}

	if err := config.CreateSample(path, force); err != nil {
		exitErr("config init", err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	b, err := cfg.Marshal()
	if err != nil {
		exitErr("config show", err)
	}
	fmt.Fprintf(stdout, "# %s\n", configPath)
	fmt.Fprint(stdout, string(b))
}
