// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/gigly/internal/otp"
	"github.com/taibuivan/gigly/internal/platform/constants"
	"github.com/taibuivan/gigly/internal/platform/sec"
	"github.com/taibuivan/gigly/pkg/digits"
)

var (
	loginRole  string
	loginPhone string
	loginEmail string
)

var (
	// errLoginAbandoned is returned when the user quits the code prompt.
	errLoginAbandoned = errors.New("login abandoned")

	errInputClosed = errors.New("input closed")
)

// loginCmd runs the phone challenge interactively
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in or sign up with a phone number",
	Long: `Requests a verification code for the phone number and prompts for it.

An unknown number is signed up automatically. Helpers are asked for an
institutional email, which is verified with a second code.

At the code prompt, enter "r" to resend once the cooldown has passed or
"q" to quit. A pasted code may contain spaces or dashes.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginRole, "role", sec.RoleClient.String(), "Account role: client or helper")
	loginCmd.Flags().StringVar(&loginPhone, "phone", "", "Phone number (prompted when empty)")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Institutional email for helper sign-up (prompted when needed)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	role, err := sec.ParseRole(loginRole)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	out := cmd.OutOrStdout()
	input := newPrompter(cmd.InOrStdin(), out)

	phone := loginPhone
	if phone == "" {
		if phone, err = input.ask("Phone number: "); err != nil {
			return err
		}
	}
	email := loginEmail

	flow := application.NewFlow(role)
	defer flow.Close()

	state := flow.Dispatch(ctx, otp.SubmitPhone{Phone: phone})
	for {
		switch state.Phase {
		case otp.PhaseIdle:
			if state.Err != nil {
				return state.Err
			}
			return errLoginAbandoned

		case otp.PhaseDone:
			fmt.Fprintln(out, arrival(state.Destination))
			return nil

		case otp.PhaseAwaitingSignupEmail, otp.PhaseNeedsEmail:
			warn(out, state.Err)

			// The flag is used once; a rejected address is asked for again.
			if email == "" {
				if email, err = input.ask("Institutional email: "); err != nil {
					return err
				}
			}

			var event otp.Event = otp.SubmitSignupEmail{Email: email}
			if state.Phase == otp.PhaseNeedsEmail {
				event = otp.SubmitEmail{Email: email}
			}
			email = ""
			state = flow.Dispatch(ctx, event)

		case otp.PhaseChallengeSent, otp.PhaseEmailChallengeSent:
			warn(out, state.Err)

			answer, err := input.ask(fmt.Sprintf("Code sent to %s (r: resend, q: quit): ", state.Challenge.Destination))
			if err != nil {
				return err
			}

			switch strings.ToLower(answer) {
			case "q":
				flow.Dispatch(ctx, otp.Abandon{})
				return errLoginAbandoned
			case "r":
				current := flow.State()
				if !current.CanResend() {
					fmt.Fprintf(out, "You can resend in %s.\n", time.Duration(current.Cooldown)*constants.CooldownTick)
					state = current
					continue
				}
				state = flow.Dispatch(ctx, otp.Resend{})
			default:
				state = flow.Dispatch(ctx, codeEvent(answer))
			}

		case otp.PhaseCheckingCompletion:
			if state.Err == nil {
				return fmt.Errorf("login: flow stopped while %s", state.Phase)
			}
			warn(out, state.Err)

			answer, err := input.ask("Retry? [Y/n]: ")
			if err != nil {
				return err
			}
			if strings.EqualFold(answer, "n") {
				return state.Err
			}
			state = flow.Dispatch(ctx, otp.Retry{})

		default:
			return fmt.Errorf("login: flow stopped while %s", state.Phase)
		}
	}
}

// codeEvent treats an answer with separators, such as "123 456" or "123-456",
// as a paste. Anything else is typed input and is validated as such.
func codeEvent(answer string) otp.Event {
	code := digits.Only(answer)
	if code != digits.Narrow(answer) && len(code) == constants.OTPLength {
		return otp.PasteCode{Text: answer}
	}
	return otp.EnterCode{Code: answer}
}

// arrival describes where a finished flow hands off to.
func arrival(destination otp.Destination) string {
	switch destination {
	case otp.DestinationDashboard:
		return "Signed in. Your dashboard is ready."
	case otp.DestinationProfileCompletion:
		return "Signed in. Complete your profile with `gigly profile`."
	case otp.DestinationEmailVerification:
		return "Signed in. Your email still needs verification; run `gigly login` again."
	default:
		return "Signed in."
	}
}

func warn(out io.Writer, err error) {
	if err != nil {
		fmt.Fprintln(out, "!", describe(err))
	}
}

// # Prompt

// prompter reads one trimmed line per question.
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{reader: bufio.NewReader(in), out: out}
}

// ask prints question and returns the answer. A closed input ends the prompt.
func (prompt *prompter) ask(question string) (string, error) {
	fmt.Fprint(prompt.out, question)

	line, err := prompt.reader.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", errInputClosed
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("prompt_read_failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}
