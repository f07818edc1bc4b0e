package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/fleetdesk/internal/otp"
)

// OTPDemoOptions holds flags for the otp demo command.
type OTPDemoOptions struct {
	*RootOptions
	Phone string
	Code  string
}

// OTPDemoResult is the outcome of one simulated verification.
type OTPDemoResult struct {
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	ResendIn  int    `json:"resendIn"`
	Attempted bool   `json:"attempted"`
	Verified  bool   `json:"verified"`
}

// NewOTPCommand creates the otp command group.
func NewOTPCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Phone verification codes",
	}
	cmd.AddCommand(newOTPDemoCommand(rootOpts, otp.RandomCode))
	return cmd
}

func newOTPDemoCommand(rootOpts *RootOptions, codes otp.CodeSource) *cobra.Command {
	opts := &OTPDemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Simulate sending and verifying a code",
		Long: `Generate a 6-digit code for --phone and print it instead of sending an
SMS. With --code the entered value is checked against the generated one.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOTPDemo(opts, codes, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number to verify (required)")
	_ = cmd.MarkFlagRequired("phone")
	cmd.Flags().StringVar(&opts.Code, "code", "", "code to verify")

	return cmd
}

// printSender captures the code so the demo can show it.
type printSender struct {
	log  *slog.Logger
	code string
}

func (s *printSender) Send(ctx context.Context, phone, code string) error {
	s.code = code
	s.log.DebugContext(ctx, "otp simulated", "phone", phone)
	return nil
}

func runOTPDemo(opts *OTPDemoOptions, codes otp.CodeSource, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sender := &printSender{log: opts.Logger()}
	session := otp.NewSession(sender,
		otp.WithCodes(codes),
		otp.WithTickInterval(0),
		otp.WithLogger(opts.Logger()),
	)
	defer session.Reset()

	if err := session.Send(ctx, opts.Phone); err != nil {
		return report(f, err)
	}
	result := OTPDemoResult{
		Phone:    opts.Phone,
		Code:     sender.code,
		ResendIn: session.Countdown().Remaining(),
	}

	if cmd.Flags().Changed("code") {
		result.Attempted = true
		session.Enter(opts.Code)
		if err := session.Verify(); err != nil {
			return fail(f, ErrCodeOTP, err.Error(), result, ExitFailure, err)
		}
		result.Verified = session.Verified()
	}

	return f.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Code %s sent to %s (resend available in %ds)\n", result.Code, result.Phone, result.ResendIn)
		if result.Attempted {
			fmt.Fprintln(w, "Phone number verified.")
		}
		return nil
	})
}
