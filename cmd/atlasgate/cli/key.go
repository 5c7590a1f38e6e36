package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atlasgate/atlasgate/internal/config"
	"github.com/atlasgate/atlasgate/internal/model"
	"github.com/atlasgate/atlasgate/internal/service"
	"github.com/atlasgate/atlasgate/internal/store"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage license keys",
		Long:  "Issue and list license keys directly against the configured store, without going through the HTTP admin endpoints.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())

	return cmd
}

// openKeyStore opens the store selected by the active configuration.
func openKeyStore() (*store.Store, error) {
	cfg := config.Load(viper.GetViper())
	return store.Open(cfg.Storage.Driver, cfg.Storage.DSN)
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		name     string
		duration int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new license key",
		Long:  "Generate a new ATLAS-XXXX-XXXX key. The code is shown once; hand it to exactly one user.",
		Example: `  atlasgate key create --name alice --duration 24
  atlasgate key create --name "press preview" --duration -1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(name, duration)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Label for the key holder")
	cmd.Flags().Int64Var(&duration, "duration", 24, "Validity window in hours after first use (-1 = unlimited)")

	return cmd
}

func runKeyCreate(name string, duration int64) error {
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	licenses := service.NewLicenseService(st)
	key, err := licenses.Issue(context.Background(), name, duration)
	if err != nil {
		return fmt.Errorf("issue key: %w", err)
	}

	fmt.Println("License key issued:")
	fmt.Println()
	fmt.Printf("  Code:     %s\n", key.KeyCode)
	if key.Name != "" {
		fmt.Printf("  Name:     %s\n", key.Name)
	}
	if key.Unlimited() {
		fmt.Printf("  Duration: unlimited\n")
	} else {
		fmt.Printf("  Duration: %d hours after first use\n", key.DurationHours)
	}
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List issued keys, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(jsonOutput bool) error {
	st, err := openKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListKeys(context.Background())
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tDURATION\tBOUND TO\tFIRST USED")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			k.KeyCode, k.Name, formatDuration(k), formatBound(k), formatFirstUsed(k))
	}
	return w.Flush()
}

func formatDuration(k model.LicenseKey) string {
	if k.Unlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%dh", k.DurationHours)
}

func formatBound(k model.LicenseKey) string {
	if !k.Bound() {
		return "-"
	}
	return k.UsedByIP
}

func formatFirstUsed(k model.LicenseKey) string {
	if k.FirstUsedAt == nil {
		return "-"
	}
	return k.FirstUsedAt.Format("2006-01-02 15:04 MST")
}
