// swtwind - Ethernet switch fabric twin
//
// Runs a supervisor process that creates switches, wires links between
// them, and exposes each switch's operator CLI over Telnet.
//
//	swtwind serve --lab lab.yaml --telnet-base 9000
//	swtwind version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/swtwin/pkg/twin/lab"
	"github.com/newtron-network/swtwin/pkg/twin/util"
	"github.com/newtron-network/swtwin/pkg/twin/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "swtwind",
	Short:         "Ethernet switch fabric twin supervisor",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	labFile    string
	telnetBase int
	verbose    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the supervisor and drive the stdin lab REPL",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("info")
		}

		sv := lab.NewSupervisor(telnetBase)
		if labFile != "" {
			if err := sv.LoadTopologyFile(labFile); err != nil {
				return fmt.Errorf("loading %s: %w", labFile, err)
			}
			util.Logger.Infof("loaded topology from %s (%d nodes)", labFile, len(sv.Names()))
		}
		sv.Run(os.Stdin, os.Stdout)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.Info())
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&labFile, "lab", "", "lab.yaml topology to bootstrap at startup")
	serveCmd.Flags().IntVar(&telnetBase, "telnet-base", lab.DefaultTelnetBase, "first Telnet port allocated to a switch")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
