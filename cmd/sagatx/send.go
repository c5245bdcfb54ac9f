package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/pending"
	"github.com/solanasaga/saga-tx-go/platform"
	"github.com/solanasaga/saga-tx-go/submit"
	"github.com/solanasaga/saga-tx-go/tx"
	"github.com/solanasaga/saga-tx-go/wallet"
)

type sendFlags struct {
	environment string
	userAgent   string
	injected    bool
	identity    string
	noRetry     bool
	yes         bool
	metrics     bool
}

func newSendMemoCmd(a *app) *cobra.Command {
	var f sendFlags

	cmd := &cobra.Command{
		Use:   "send-memo <text> [text...]",
		Short: "Send one memo transaction per argument and wait for confirmation",
		Long: `send-memo signs with the keystore wallet and submits a memo instruction.

With several arguments the memos are sent in order as a batch; the batch
stops at the first failure. The signing protocol follows --environment, or
is classified from --user-agent when that is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.sendMemos(ctx, cmd.OutOrStdout(), args, f)
		},
	}

	cmd.Flags().StringVar(&f.environment, "environment", platform.Desktop.String(),
		"Signing environment: desktop, in_app_browser or deep_link_mobile")
	cmd.Flags().StringVar(&f.userAgent, "user-agent", "",
		"Classify the environment from this user agent instead of --environment")
	cmd.Flags().BoolVar(&f.injected, "injected-wallet", false,
		"With --user-agent, report an in-page wallet provider")
	cmd.Flags().StringVar(&f.identity, "identity", "",
		"Deduplication key; also keys the journal record")
	cmd.Flags().BoolVar(&f.noRetry, "no-retry", false,
		"Make a single attempt")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false,
		"Sign without asking for approval")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false,
		"Print submission metrics when done")
	return cmd
}

func (f sendFlags) classifier() (*platform.Classifier, error) {
	if f.userAgent != "" {
		sig := platform.Signals{
			UserAgent:        f.userAgent,
			InjectedWallet:   f.injected,
			AdapterReachable: true,
		}
		return platform.NewClassifier(func() platform.Signals { return sig }), nil
	}
	env, err := platform.ParseEnvironment(f.environment)
	if err != nil {
		return nil, err
	}
	return platform.Fixed(env), nil
}

func (a *app) sendMemos(ctx context.Context, out io.Writer, memos []string, f sendFlags) error {
	rpcCfg, err := a.rpcConfig()
	if err != nil {
		return err
	}
	client := network.NewRPCClient(*rpcCfg)

	classifier, err := f.classifier()
	if err != nil {
		return err
	}

	password, err := readPassword("Keystore password", false)
	if err != nil {
		return err
	}
	opts := []wallet.KeypairOption{wallet.WithSender(client)}
	if !f.yes {
		opts = append(opts, wallet.WithApprover(approver(strings.Join(memos, ", "))))
	}
	kp, err := wallet.LoadKeystore(a.keystorePath(), password, opts...)
	if err != nil {
		return err
	}

	journal, err := pending.OpenBoltJournal(a.cfg.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	reg := prometheus.NewRegistry()
	h, err := submit.NewHandler(submit.Config{
		RPC:             client,
		Wallet:          kp,
		Classifier:      classifier,
		Journal:         journal,
		JournalTTL:      a.cfg.JournalTTL.Std(),
		PollInterval:    a.cfg.PollInterval.Std(),
		DeepLinkTimeout: a.cfg.DeepLinkTimeout.Std(),
		Metrics:         submit.NewMetrics(reg),
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}

	a.logger.Info("sending memos",
		zap.String("network", rpcCfg.Network),
		zap.String("environment", h.Environment().String()),
		zap.String("fee_payer", kp.PublicKey().String()),
		zap.Int("count", len(memos)))
	fmt.Fprintf(out, "%s %s (%s)\n", color.CyanString("Environment:"), h.Environment(), rpcCfg.Network)

	unsubscribe := h.Subscribe(phasePrinter(out))
	defer unsubscribe()

	batch := make([]*tx.Unsigned, 0, len(memos))
	for _, m := range memos {
		ix, err := tx.MemoInstruction(m, kp.PublicKey())
		if err != nil {
			return err
		}
		u, err := h.CreateTransaction(ctx, []solana.Instruction{ix})
		if err != nil {
			return err
		}
		batch = append(batch, u)
	}

	sendOpts := a.cfg.SubmitOptions()
	sendOpts.Identity = f.identity
	sendOpts.Metadata = map[string]string{"memo": strings.Join(memos, "\n")}

	var results []*submit.Result
	switch {
	case len(batch) > 1:
		results, err = h.SendTransactionBatch(ctx, batch, sendOpts)
	case f.noRetry:
		var r *submit.Result
		if r, err = h.SendTransaction(ctx, batch[0], sendOpts); r != nil {
			results = append(results, r)
		}
	default:
		var r *submit.Result
		if r, err = h.SendTransactionWithRetry(ctx, batch[0], sendOpts); r != nil {
			results = append(results, r)
		}
	}

	for i, r := range results {
		fmt.Fprintf(out, "%s %q %s (%d attempt(s))\n",
			color.GreenString("Confirmed"), memos[i], r.Signature, r.Attempts)
	}
	if f.metrics {
		printMetrics(out, reg)
	}
	if err != nil {
		fmt.Fprintln(out, color.RedString(submit.Reason(err)))
		return err
	}
	return nil
}

// printMetrics writes every collected sample as "name{labels} value".
func printMetrics(out io.Writer, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		fmt.Fprintf(out, "metrics: %v\n", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetGauge().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
}
