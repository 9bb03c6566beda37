// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package navigation

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/taibuivan/gigly/internal/platform/sec"
)

// # Stages

// Stage is a dashboard page of the authenticated shell.
type Stage string

const (
	StageCreatePost    Stage = "createPost"
	StageMyPosts       Stage = "myPosts"
	StageSearchHelpers Stage = "searchHelpers"
	StageProfile       Stage = "profile"
	StageTasks         Stage = "tasks"
	StageApps          Stage = "apps"
)

var (
	clientStages = []Stage{StageCreatePost, StageMyPosts, StageSearchHelpers, StageProfile}
	helperStages = []Stage{StageProfile, StageTasks, StageApps}
)

// Allowed returns the stages a role may navigate to, in menu order.
func Allowed(role sec.Role) []Stage {
	switch role {
	case sec.RoleClient:
		return slices.Clone(clientStages)
	case sec.RoleHelper:
		return slices.Clone(helperStages)
	default:
		return nil
	}
}

// Default returns the landing stage of a role.
func Default(role sec.Role) Stage {
	if role == sec.RoleHelper {
		return StageTasks
	}
	return StageMyPosts
}

// Permits reports whether stage belongs to the role's set.
func Permits(role sec.Role, stage Stage) bool {
	return slices.Contains(Allowed(role), stage)
}

// ParseStage reads a persisted value, JSON-encoded or bare, and checks it
// against the role's set. Anything else yields false.
func ParseStage(role sec.Role, raw string) (Stage, bool) {
	raw = strings.TrimSpace(raw)

	var decoded string
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		raw = decoded
	}

	stage := Stage(raw)
	if !Permits(role, stage) {
		return "", false
	}
	return stage, true
}

func encode(stage Stage) string {
	payload, _ := json.Marshal(string(stage))
	return string(payload)
}
