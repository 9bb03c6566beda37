// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taibuivan/gigly/internal/identity"
	"github.com/taibuivan/gigly/internal/navigation"
	"github.com/taibuivan/gigly/internal/profile"
	"github.com/taibuivan/gigly/internal/session"
	"github.com/taibuivan/gigly/pkg/slice"
)

const notSignedIn = "Not signed in. Run `gigly login`."

var (
	profileName        string
	profileBio         string
	profileInstitution string
)

// logoutCmd ends the session locally and server-side
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// statusCmd shows the session and onboarding state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in account, onboarding stage and current screen",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// whoamiCmd prints the identity as JSON
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the signed-in identity as JSON",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

// stageCmd shows or moves the dashboard screen
var stageCmd = &cobra.Command{
	Use:   "stage [name]",
	Short: "Show or change the dashboard screen",
	Long: `Without an argument, lists the screens of your role and marks the current one.
With a name, switches to that screen; it is remembered between runs.

Clients: createPost, myPosts, searchHelpers, profile
Helpers: profile, tasks, apps`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStage,
}

// profileCmd submits the profile form
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Complete or update your profile",
	Long: `Submits the profile form and shows the resulting onboarding stage.

Example:
  gigly profile --name "Aiko" --bio "Math tutor" --institution "Kyoto University"`,
	Args: cobra.NoArgs,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileName, "name", "", "Display name (required)")
	profileCmd.Flags().StringVar(&profileBio, "bio", "", "Short description")
	profileCmd.Flags().StringVar(&profileInstitution, "institution", "", "School or university (helpers)")
	_ = profileCmd.MarkFlagRequired("name")
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	out := cmd.OutOrStdout()
	if !application.Session.IsAuthenticated() {
		fmt.Fprintln(out, notSignedIn)
		return nil
	}

	application.Session.Logout(ctx)
	fmt.Fprintln(out, "Signed out.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	out := cmd.OutOrStdout()
	if !application.Session.IsAuthenticated() {
		fmt.Fprintln(out, notSignedIn)
		return nil
	}

	who := application.Session.Identity()
	fmt.Fprintf(out, "role:       %s\n", who.Role)
	fmt.Fprintf(out, "account:    %s\n", who.ID)
	fmt.Fprintf(out, "phone:      %s\n", who.Phone)
	if who.Email != "" {
		fmt.Fprintf(out, "email:      %s\n", who.Email)
	}

	status, ok := application.Session.ProfileStatus()
	if !ok {
		if status, err = application.Session.RefreshProfileStatus(ctx); err != nil {
			fmt.Fprintf(out, "onboarding: unknown (%s)\n", describe(err))
		} else {
			ok = true
		}
	}
	if ok {
		fmt.Fprintf(out, "onboarding: %s\n", profile.StageOf(status))
	}

	if application.Gate.Hydrated() {
		fmt.Fprintf(out, "screen:     %s\n", application.Gate.Stage())
	}
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if !application.Session.IsAuthenticated() {
		return session.ErrNoSession
	}

	payload, err := json.MarshalIndent(application.Session.Identity(), "", "  ")
	if err != nil {
		return fmt.Errorf("whoami_encode_failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

func runStage(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if !application.Session.IsAuthenticated() {
		return session.ErrNoSession
	}

	role := application.Session.Role()
	gate := application.Gate
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, stage := range navigation.Allowed(role) {
			marker := " "
			if stage == gate.Stage() {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, stage)
		}
		return nil
	}

	stage, ok := navigation.ParseStage(role, args[0])
	if !ok {
		names := slice.Map(navigation.Allowed(role), func(allowed navigation.Stage) string { return string(allowed) })
		return fmt.Errorf("unknown screen %q for %s; choose one of: %s", args[0], role, strings.Join(names, ", "))
	}

	if err := gate.SetStage(ctx, stage); err != nil {
		return err
	}
	fmt.Fprintf(out, "Switched to %s.\n", stage)
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	status, err := application.CompleteProfile(ctx, identity.ProfileInput{
		Name:        profileName,
		Bio:         profileBio,
		Institution: profileInstitution,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Profile saved. Onboarding: %s\n", profile.StageOf(status))
	return nil
}
