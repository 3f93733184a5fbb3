// host.go
//
// A consistency layer for social relations and guild permissions
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of relationsdb.
// relationsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// relationsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with relationsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/relationsdb/internal/metrics"
	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/store"
	"gorm.io/gorm"
)

// Validator is the external name and message predicate.
type Validator interface {
	ValidName(s string) bool
	ValidMessage(s string) bool
}

// AddMemberPolicy decides who may add users to a channel.
type AddMemberPolicy string

const (
	// AddByMember lets any current member add users.
	AddByMember AddMemberPolicy = "member"
	// AddByOwner restricts adding users to the channel owner.
	AddByOwner AddMemberPolicy = "owner"
)

// Call is the context of one command: who invoked it, the commit timestamp,
// and the tables bound to its transaction.
type Call struct {
	Sender    models.Identity
	Timestamp time.Time
	Tables    store.Tables
	Validator Validator
	Policy    AddMemberPolicy

	grants map[grant]bool
}

// NewCall builds a Call directly. Commands run by a Host get theirs from Invoke.
func NewCall(sender models.Identity, ts time.Time, tables store.Tables, v Validator, policy AddMemberPolicy) *Call {
	if policy == "" {
		policy = AddByMember
	}
	return &Call{Sender: sender, Timestamp: ts, Tables: tables, Validator: v, Policy: policy}
}

// Host runs each command in one database transaction. Any error returned by
// the command rolls the transaction back; nil commits it. Commands are never
// retried.
type Host struct {
	DB        *gorm.DB
	Validator Validator
	Policy    AddMemberPolicy
	Now       func() time.Time
	Logger    *slog.Logger
	Metrics   *metrics.Commands
}

// Invoke runs fn as the named command on behalf of sender.
func (h *Host) Invoke(ctx context.Context, sender models.Identity, command string, fn func(*Call) error) error {
	invocation := uuid.NewString()
	start := time.Now()

	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call := NewCall(sender, h.now(), store.New(tx), h.Validator, h.Policy)
		return fn(call)
	}, txOptions(h.DB)...)

	elapsed := time.Since(start)
	outcome, level := "ok", slog.LevelInfo
	attrs := []any{
		"command", command,
		"invocation", invocation,
		"sender", sender.String(),
		"elapsed", elapsed,
	}
	if err != nil {
		if kind, ok := KindOf(err); ok {
			outcome = string(kind)
		} else {
			outcome, level = "error", slog.LevelError
			attrs = append(attrs, "error", err)
		}
	}
	h.logger().Log(ctx, level, "command", append(attrs, "outcome", outcome)...)
	h.Metrics.Observe(command, outcome, elapsed)

	return err
}

// txOptions runs server dialects at read committed. A locked finder that
// misses then takes no gap lock, so of two commands inserting the same key
// the later one waits on the unique index and fails as a duplicate instead
// of deadlocking.
func txOptions(db *gorm.DB) []*sql.TxOptions {
	switch db.Dialector.Name() {
	case "mysql", "postgres":
		return []*sql.TxOptions{{Isolation: sql.LevelReadCommitted}}
	}
	return nil
}

// now is the commit timestamp, truncated to what every dialect stores.
func (h *Host) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC().Truncate(time.Millisecond)
	}
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (h *Host) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
