// failure.go
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
	"errors"

	"github.com/localnerve/relationsdb/internal/store"
)

// Kind is the structured code of a command failure.
type Kind string

const (
	KindNotFound               Kind = "NOT_FOUND"
	KindNotRegistered          Kind = "NOT_REGISTERED"
	KindInvalidName            Kind = "INVALID_NAME"
	KindInvalidMessage         Kind = "INVALID_MESSAGE"
	KindInvalidColor           Kind = "INVALID_COLOR"
	KindInvalidTarget          Kind = "INVALID_TARGET"
	KindNameTaken              Kind = "NAME_TAKEN"
	KindAlreadyMember          Kind = "ALREADY_MEMBER"
	KindNotMember              Kind = "NOT_MEMBER"
	KindAlreadyFriends         Kind = "ALREADY_FRIENDS"
	KindNotFriends             Kind = "NOT_FRIENDS"
	KindAlreadyRequested       Kind = "ALREADY_REQUESTED"
	KindNotRequested           Kind = "NOT_REQUESTED"
	KindDuplicatePermission    Kind = "DUPLICATE_PERMISSION"
	KindAlreadyAssigned        Kind = "ALREADY_ASSIGNED"
	KindNotAssigned            Kind = "NOT_ASSIGNED"
	KindNotOwner               Kind = "NOT_OWNER"
	KindPermissionDenied       Kind = "PERMISSION_DENIED"
	KindOwnerMustTransferFirst Kind = "OWNER_MUST_TRANSFER_FIRST"
)

// Class groups kinds for clients and transports.
type Class string

const (
	ClassNotFound      Class = "not_found"
	ClassInvalid       Class = "invalid"
	ClassAlreadyExists Class = "already_exists"
	ClassAuthorization Class = "authorization"
	ClassStateConflict Class = "state_conflict"
)

// Class returns the taxonomy class of k.
func (k Kind) Class() Class {
	switch k {
	case KindNotFound, KindNotRegistered:
		return ClassNotFound
	case KindInvalidName, KindInvalidMessage, KindInvalidColor, KindInvalidTarget:
		return ClassInvalid
	case KindNameTaken, KindAlreadyMember, KindAlreadyFriends, KindAlreadyRequested,
		KindDuplicatePermission, KindAlreadyAssigned:
		return ClassAlreadyExists
	case KindNotOwner, KindPermissionDenied, KindNotMember:
		return ClassAuthorization
	}
	return ClassStateConflict
}

// Failure is a precondition a command checked and rejected. Returning one
// from a command rolls its transaction back.
type Failure struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

func (f *Failure) Error() string { return f.Reason }

func fail(kind Kind, reason string) *Failure {
	return &Failure{Kind: kind, Reason: reason}
}

var (
	ErrInvalidName           = fail(KindInvalidName, "Name isn't valid")
	ErrInvalidChannelName    = fail(KindInvalidName, "Channel name isn't valid")
	ErrInvalidMessage        = fail(KindInvalidMessage, "Message content isn't valid")
	ErrInvalidColor          = fail(KindInvalidColor, "Role color must fit in 30 bits")
	ErrInvalidPermission     = fail(KindInvalidTarget, "Permission isn't valid")
	ErrSelfFriendship        = fail(KindInvalidTarget, "Cannot befriend yourself")
	ErrNameTaken             = fail(KindNameTaken, "Name not available")
	ErrChannelNameTaken      = fail(KindNameTaken, "A channel already exists with this name")
	ErrNotRegistered         = fail(KindNotRegistered, "User is not registered")
	ErrUserNotFound          = fail(KindNotFound, "No user found")
	ErrChannelNotFound       = fail(KindNotFound, "No channel found")
	ErrGuildNotFound         = fail(KindNotFound, "No guild found")
	ErrRoleNotFound          = fail(KindNotFound, "No role found")
	ErrPermissionNotFound    = fail(KindNotFound, "No permission found")
	ErrAlreadyChannelMember  = fail(KindAlreadyMember, "Already a member of the channel")
	ErrAlreadyGuildMember    = fail(KindAlreadyMember, "Already a member of the guild")
	ErrNotChannelMember      = fail(KindNotMember, "Not a member of the channel")
	ErrTargetNotMember       = fail(KindNotMember, "The user is not a member of the channel")
	ErrNotGuildMember        = fail(KindNotMember, "Not a member of the guild")
	ErrAlreadyFriends        = fail(KindAlreadyFriends, "Already a friend")
	ErrNotFriends            = fail(KindNotFriends, "Not a friend")
	ErrAlreadyRequested      = fail(KindAlreadyRequested, "Already requested friendship")
	ErrNotRequested          = fail(KindNotRequested, "Friendship wasn't requested")
	ErrDuplicatePermission   = fail(KindDuplicatePermission, "Permission already added")
	ErrAlreadyAssigned       = fail(KindAlreadyAssigned, "User has already the role")
	ErrNotAssigned           = fail(KindNotAssigned, "User doesn't have the role")
	ErrNotChannelOwner       = fail(KindNotOwner, "Only the owner can remove a user")
	ErrNotOwnerAdd           = fail(KindNotOwner, "Only the owner can add a user")
	ErrNotOwnerTransfer      = fail(KindNotOwner, "Only the owner can transfer the channel")
	ErrNotGuildOwner         = fail(KindNotOwner, "You must be the owner")
	ErrNotOwnerCreateChannel = fail(KindNotOwner, "Only owner can create a channel in the guild")
	ErrNotOwnerDeleteChannel = fail(KindNotOwner, "Only owner can delete a channel in the guild")
	ErrNotOwnerRoleName      = fail(KindNotOwner, "Only owner can change the role name")
	ErrNotOwnerRoleColor     = fail(KindNotOwner, "Only owner can change the role color")
	ErrNotOwnerRemoveRole    = fail(KindNotOwner, "Only owner can remove a role")
	ErrNotOwnerAddPerm       = fail(KindNotOwner, "Only owner can add permissions to a role")
	ErrNotOwnerRemovePerm    = fail(KindNotOwner, "Only owner can remove permissions from a role")
	ErrNotOwnerAssignRole    = fail(KindNotOwner, "Only owner can add role to a user")
	ErrNotOwnerUnassignRole  = fail(KindNotOwner, "Only owner can remove role to a user")
	ErrGuildChannelNotFound  = fail(KindNotFound, "No guild channel found")
	ErrTargetNotGuildMember  = fail(KindNotMember, "The user is not a member of the guild")
	ErrPermissionDenied      = fail(KindPermissionDenied, "You don't have enough permission")
	ErrOwnerMustTransfer     = fail(KindOwnerMustTransferFirst, "The owner need to transfer the ownership first before removing itself from the channel")
	ErrGuildOwnerCannotLeave = fail(KindOwnerMustTransferFirst, "The owner cannot leave the guild")
)

// KindOf returns the failure kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a failure of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// raced turns a unique key violation into failure. The existence check
// before an insert sees no row when a concurrent command inserts the same
// one; the insert that loses is rejected as the check would have been.
func raced(err error, failure *Failure) error {
	if errors.Is(err, store.ErrDuplicate) {
		return failure
	}
	return err
}
