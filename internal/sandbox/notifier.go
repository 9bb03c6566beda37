// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sandbox

import (
	"context"
	"log/slog"
	"strings"
)

// LogNotifier "delivers" codes by logging them. It is the only delivery the
// sandbox has: a developer reads the code from the service output.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a [LogNotifier].
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Deliver implements [Notifier].
func (notifier *LogNotifier) Deliver(context context.Context, channel Channel, destination, code string) error {
	notifier.logger.InfoContext(context, "sandbox_code_issued",
		slog.String("channel", string(channel)),
		slog.String("destination", mask(destination)),
		slog.String("code", code),
	)
	return nil
}

// mask keeps the last four characters of a phone number or the domain of an email.
func mask(destination string) string {
	if at := strings.LastIndexByte(destination, '@'); at >= 0 {
		return "***" + destination[at:]
	}
	if len(destination) <= 4 {
		return destination
	}
	return strings.Repeat("*", len(destination)-4) + destination[len(destination)-4:]
}
