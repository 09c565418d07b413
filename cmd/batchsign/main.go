// Command batchsign drives a batch of transactions through a remote signing gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rwa-signing-gateway/internal/adapter/gatewayclient"
	"rwa-signing-gateway/internal/batch"
	"rwa-signing-gateway/internal/core/ports"
	"rwa-signing-gateway/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func init() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()
}

type options struct {
	manifest   string
	gatewayURL string
	token      string
	timeout    time.Duration
	dryRun     bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "batchsign",
		Short:         "Review, validate and sign a transaction batch through the signing gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewWithWriter(opts.logLevel, cmd.ErrOrStderr())
			err := run(cmd.Context(), opts, cmd.OutOrStdout(), log)
			if err != nil {
				log.Error().Err(err).Msg("batch signing failed")
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "Path to the batch manifest (YAML)")
	cmd.Flags().StringVar(&opts.gatewayURL, "gateway", envOr("SGW_GATEWAY_URL", "http://localhost:8080"), "Signing gateway base URL")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("SGW_GATEWAY_TOKEN"), "Bearer token for the gateway")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall time allowed for the batch")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Review and validate only; nothing is signed")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", envOr("SGW_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

var errBatchFailed = errors.New("batch did not complete")

func run(ctx context.Context, opts options, out io.Writer, log zerolog.Logger) error {
	if opts.token == "" {
		return errors.New("a gateway token is required (--token or SGW_GATEWAY_TOKEN)")
	}
	requester, err := identityFromToken(opts.token)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.manifest)
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()
	b, err := readManifest(f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	client := gatewayclient.New(opts.gatewayURL, opts.token, nil, log)
	session, err := batch.NewSession(b, client, client, client, *requester, log)
	if err != nil {
		return err
	}

	preview, err := session.Review(ctx)
	if err != nil {
		return fmt.Errorf("reviewing batch: %w", err)
	}
	printPreview(out, preview)

	problems, err := session.Validate(ctx)
	if err != nil {
		return fmt.Errorf("validating batch: %w", err)
	}
	if len(problems) > 0 {
		printReport(out, session.Report())
		return errBatchFailed
	}
	if opts.dryRun {
		_ = session.Cancel()
		fmt.Fprintln(out, "dry run: batch is valid, nothing was signed")
		return nil
	}

	report, err := session.Sign(ctx)
	if err != nil {
		return fmt.Errorf("signing batch: %w", err)
	}
	printReport(out, report)
	if report.State == batch.StateError {
		return errBatchFailed
	}
	return nil
}

// identityFromToken reads the caller's claims so requests name the same identity
// the gateway will authenticate. The gateway verifies the signature; this does not.
func identityFromToken(token string) (*ports.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("reading token claims: %w", err)
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return nil, errors.New("token has no subject or role")
	}
	name, _ := claims["name"].(string)
	return &ports.Identity{UserID: sub, Name: name, Role: role}, nil
}

func printPreview(out io.Writer, p *batch.Preview) {
	fmt.Fprintf(out, "wallet  %s (%s, %s, %s, %s)\n", p.Wallet.Address, p.Wallet.Role, p.Wallet.Network, p.Wallet.KeyStorageType, p.Wallet.Status)
	fmt.Fprintf(out, "mode    %s\n", p.Mode)
	for _, tx := range p.Transactions {
		policy := "no policy configured"
		if pol := p.Policies[tx.TxType()]; pol != nil {
			policy = "policy " + pol.Name
		}
		fmt.Fprintf(out, "  #%d %-12s %s\n", tx.Order, tx.TxType(), policy)
	}
}

func printReport(out io.Writer, r *batch.Report) {
	fmt.Fprintf(out, "batch %s: %s\n", r.BatchID, r.State)
	for _, v := range r.ValidationErrors {
		if v.Order > 0 {
			fmt.Fprintf(out, "  #%d invalid: %s\n", v.Order, v.Message)
		} else {
			fmt.Fprintf(out, "  invalid: %s\n", v.Message)
		}
	}

	results := make(map[int]batch.TxResult, len(r.Results))
	for _, res := range r.Results {
		results[res.Order] = res
	}
	for _, tx := range r.Transactions {
		res, attempted := results[tx.Order]
		switch {
		case !attempted:
			fmt.Fprintf(out, "  #%d %-12s %s\n", tx.Order, tx.TxType(), tx.Status)
		case res.Succeeded():
			fmt.Fprintf(out, "  #%d %-12s signed %s (audit %s)\n", tx.Order, tx.TxType(), res.Response.TxHash, res.Response.AuditLogID)
		default:
			fmt.Fprintf(out, "  #%d %-12s failed", tx.Order, tx.TxType())
			if res.Response != nil {
				fmt.Fprintf(out, ": %s (%s)", res.Response.Error, res.Response.ErrorCode)
			}
			fmt.Fprintln(out)
			if res.Remediation != nil {
				fmt.Fprintf(out, "      %s. %s\n", res.Remediation.Message, res.Remediation.Action)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
