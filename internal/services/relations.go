// relations.go
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
	"time"

	"github.com/localnerve/relationsdb/internal/models"
	"github.com/localnerve/relationsdb/internal/pairkey"
)

// Contact is the public view of another user.
type Contact struct {
	ID          models.Identity `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"displayName"`
	Online      bool            `json:"online"`
}

// PendingRequest is a friend request seen from the caller's side.
type PendingRequest struct {
	User      Contact   `json:"user"`
	Incoming  bool      `json:"incoming"`
	CreatedAt time.Time `json:"createdAt"`
}

func contactOf(u *models.User) Contact {
	return Contact{ID: u.ID, Name: u.Name, DisplayName: u.DisplayName, Online: u.Online}
}

// pair resolves the caller and the named user, and the canonical key of the two.
func pair(c *Call, name string) (*models.User, *models.User, models.Key, error) {
	me, err := registered(c)
	if err != nil {
		return nil, nil, models.Key{}, err
	}
	other, err := userNamed(c, name)
	if err != nil {
		return nil, nil, models.Key{}, err
	}
	if other.ID == me.ID {
		return nil, nil, models.Key{}, ErrSelfFriendship
	}
	return me, other, pairkey.Of(me.ID, other.ID), nil
}

// RequestFriendship records a request from the caller to the named user.
func RequestFriendship(c *Call, name string) error {
	me, other, key, err := pair(c, name)
	if err != nil {
		return err
	}

	tables := c.Tables.Locked()
	friend, err := tables.Friend(key)
	if err != nil {
		return err
	}
	if friend != nil {
		return ErrAlreadyFriends
	}
	request, err := tables.FriendRequest(key)
	if err != nil {
		return err
	}
	if request != nil {
		return ErrAlreadyRequested
	}

	a, b := pairkey.Order(me.ID, other.ID)
	return raced(c.Tables.InsertFriendRequest(&models.FriendRequest{
		Hash:        key,
		UserA:       a,
		UserB:       b,
		RequestedBy: me.ID,
		CreatedAt:   c.Timestamp,
	}), ErrAlreadyRequested)
}

// AcceptFriendship turns the named user's request to the caller into a
// friendship. The sender of a request cannot accept it.
func AcceptFriendship(c *Call, requester string) error {
	_, other, key, err := pair(c, requester)
	if err != nil {
		return err
	}

	tables := c.Tables.Locked()
	friend, err := tables.Friend(key)
	if err != nil {
		return err
	}
	if friend != nil {
		return ErrAlreadyFriends
	}
	request, err := tables.FriendRequest(key)
	if err != nil {
		return err
	}
	if request == nil || request.RequestedBy != other.ID {
		return ErrNotRequested
	}

	if err := c.Tables.DeleteFriendRequest(key); err != nil {
		return err
	}
	return raced(c.Tables.InsertFriend(&models.Friend{
		Hash:  key,
		UserA: request.UserA,
		UserB: request.UserB,
	}), ErrAlreadyFriends)
}

// DeclineFriendship drops the pending request between the caller and the
// named user, whichever side sent it.
func DeclineFriendship(c *Call, name string) error {
	_, _, key, err := pair(c, name)
	if err != nil {
		return err
	}
	request, err := c.Tables.Locked().FriendRequest(key)
	if err != nil {
		return err
	}
	if request == nil {
		return ErrNotRequested
	}
	return c.Tables.DeleteFriendRequest(key)
}

// RemoveFriend ends the friendship between the caller and the named user.
func RemoveFriend(c *Call, name string) error {
	_, _, key, err := pair(c, name)
	if err != nil {
		return err
	}
	friend, err := c.Tables.Locked().Friend(key)
	if err != nil {
		return err
	}
	if friend == nil {
		return ErrNotFriends
	}
	return c.Tables.DeleteFriend(key)
}

// ListFriends returns the caller's friends.
func ListFriends(c *Call) ([]Contact, error) {
	me, err := registered(c)
	if err != nil {
		return nil, err
	}
	friends, err := c.Tables.FriendsOf(me.ID)
	if err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(friends))
	for _, f := range friends {
		u, err := c.Tables.UserByID(f.Other(me.ID))
		if err != nil {
			return nil, err
		}
		if u != nil {
			contacts = append(contacts, contactOf(u))
		}
	}
	return contacts, nil
}

// ListFriendRequests returns the requests the caller sent or received.
func ListFriendRequests(c *Call) ([]PendingRequest, error) {
	me, err := registered(c)
	if err != nil {
		return nil, err
	}
	requests, err := c.Tables.FriendRequestsOf(me.ID)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingRequest, 0, len(requests))
	for _, r := range requests {
		u, err := c.Tables.UserByID(r.Other(me.ID))
		if err != nil {
			return nil, err
		}
		if u == nil {
			continue
		}
		pending = append(pending, PendingRequest{
			User:      contactOf(u),
			Incoming:  r.RequestedBy != me.ID,
			CreatedAt: r.CreatedAt,
		})
	}
	return pending, nil
}
