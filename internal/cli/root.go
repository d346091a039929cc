package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	vcenterURL, vcenterUsername, vcenterPassword string
	datacenter, logLevel                         string
	insecure                                     bool
	timeout                                      int
	webhookURL                                   string
	webhookUsername                              string
	webhookPassword                              string
)

var rootCommand = &cobra.Command{
	Use:     "snapjanitor",
	Aliases: []string{"vsphere-snapjanitor"},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'version' and 'help' run without connection flags.
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if vcenterURL == "" {
			return fmt.Errorf("required flag(s) \"vcenter-url\" not set")
		}
		if datacenter == "" {
			return fmt.Errorf("required flag(s) \"datacenter\" not set")
		}

		return nil
	},
	Short: "SnapJanitor: vSphere Snapshot Retention Cleanup",
	Long: `SnapJanitor is a retention-driven cleanup tool for vCenter VM snapshots.
It classifies snapshots against an age policy, deletes the eligible ones,
verifies the deletions actually took effect, and reports what was deleted,
what was deliberately retained, and what failed.`,
}

func Execute() error {
	return rootCommand.Execute()
}

func init() {
	rootCommand.AddGroup(&cobra.Group{ID: "snapjanitor", Title: "Snapjanitor"})

	// Global persistent flags with env var support
	rootCommand.PersistentFlags().StringVar(&vcenterURL, "vcenter-url", "", "vCenter SDK endpoint, e.g. https://vc01.example.com/sdk (required)")
	rootCommand.PersistentFlags().StringVar(&vcenterUsername, "vcenter-username", "", "vCenter username (overrides URL credentials)")
	rootCommand.PersistentFlags().StringVar(&vcenterPassword, "vcenter-password", "", "vCenter password")
	rootCommand.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	rootCommand.PersistentFlags().StringVar(&datacenter, "datacenter", "", "Inventory datacenter name (required)")
	rootCommand.PersistentFlags().IntVar(&timeout, "timeout", 0, "Global execution timeout in seconds (0 = run indefinitely)")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCommand.PersistentFlags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL for report delivery")
	rootCommand.PersistentFlags().StringVar(&webhookUsername, "webhook-username", "", "Webhook username")
	rootCommand.PersistentFlags().StringVar(&webhookPassword, "webhook-password", "", "Webhook password")

	// Bind to env vars
	_ = viper.BindPFlag("vcenter-url", rootCommand.PersistentFlags().Lookup("vcenter-url"))
	_ = viper.BindPFlag("vcenter-username", rootCommand.PersistentFlags().Lookup("vcenter-username"))
	_ = viper.BindPFlag("vcenter-password", rootCommand.PersistentFlags().Lookup("vcenter-password"))
	_ = viper.BindPFlag("datacenter", rootCommand.PersistentFlags().Lookup("datacenter"))
	_ = viper.BindPFlag("timeout", rootCommand.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("log-level", rootCommand.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("SNAPJANITOR")
	viper.AutomaticEnv()
}
