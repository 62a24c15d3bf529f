package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/statboard/internal/tls"
)

var tlsCmd = &cobra.Command{
	Use:   "tls",
	Short: "TLS certificate commands",
}

var tlsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show TLS certificate status of the web dashboard",
	RunE:  runTLSStatus,
}

func init() {
	tlsCmd.AddCommand(tlsStatusCmd)
	rootCmd.AddCommand(tlsCmd)
}

func runTLSStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tc := cfg.Server.TLS

	if !tc.ACME.Enabled {
		// Check manual certificates
		if tc.CertFile != "" {
			info, err := tls.GetCertificateInfo(tc.CertFile)
			if err != nil {
				return fmt.Errorf("failed to read certificate: %w", err)
			}
			fmt.Println("TLS Certificate (manual):")
			fmt.Printf("  File: %s\n", tc.CertFile)
			fmt.Printf("  Subject: %s\n", info.Subject)
			fmt.Printf("  Issuer: %s\n", info.Issuer)
			fmt.Printf("  Valid until: %s\n", info.NotAfter.Format(time.RFC3339))
			fmt.Printf("  Days left: %d\n", info.DaysLeft)
			return nil
		}
		fmt.Println("TLS is not configured")
		return nil
	}

	acmeManager := tls.NewACMEManager(tc.ACME.Email, tc.ACME.Domains, tc.ACME.CacheDir)
	certs := acmeManager.CachedCertificates(cmd.Context())
	if len(certs) == 0 {
		fmt.Println("ACME certificates not found in cache.")
		fmt.Println("They are obtained on the first HTTPS request to 'statboard serve'.")
		return nil
	}

	fmt.Println("ACME Certificates:")
	for _, cert := range certs {
		status := "OK"
		if cert.Due() {
			status = "RENEWAL DUE"
		}
		fmt.Printf("  %s:\n", cert.Domain)
		fmt.Printf("    Valid until: %s\n", cert.NotAfter.Format(time.RFC3339))
		fmt.Printf("    Days left: %d\n", cert.DaysLeft)
		fmt.Printf("    Status: %s\n", status)
	}

	return nil
}
