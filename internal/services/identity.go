package services

import (
	"log/slog"

	"github.com/localnerve/relationsdb/internal/models"
)

// registered returns the caller's user row or ErrNotRegistered.
func registered(c *Call) (*models.User, error) {
	user, err := c.Tables.UserByID(c.Sender)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotRegistered
	}
	return user, nil
}

// userNamed resolves a user by name or fails with ErrUserNotFound.
func userNamed(c *Call, name string) (*models.User, error) {
	user, err := c.Tables.UserByName(name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetName registers the caller under name, or renames them. A new user
// starts online with its display name equal to name.
func SetName(c *Call, name string) error {
	if !c.Validator.ValidName(name) {
		return ErrInvalidName
	}

	holder, err := c.Tables.UserByName(name)
	if err != nil {
		return err
	}
	if holder != nil {
		return ErrNameTaken
	}

	user, err := c.Tables.UserByID(c.Sender)
	if err != nil {
		return err
	}
	if user == nil {
		return raced(c.Tables.InsertUser(&models.User{
			ID:          c.Sender,
			Name:        name,
			DisplayName: name,
			Online:      true,
			CreatedAt:   c.Timestamp,
		}), ErrNameTaken)
	}

	user.Name = name
	return raced(c.Tables.UpdateUser(user), ErrNameTaken)
}

// SetDisplayName changes the caller's display name. Display names are not unique.
func SetDisplayName(c *Call, name string) error {
	if !c.Validator.ValidName(name) {
		return ErrInvalidName
	}
	user, err := registered(c)
	if err != nil {
		return err
	}
	user.DisplayName = name
	return c.Tables.UpdateUser(user)
}

// OnConnect marks the caller online. Unregistered callers are ignored.
func OnConnect(c *Call) error {
	return setOnline(c, true)
}

// OnDisconnect marks the caller offline. Unregistered callers are ignored.
func OnDisconnect(c *Call) error {
	return setOnline(c, false)
}

func setOnline(c *Call, online bool) error {
	user, err := c.Tables.UserByID(c.Sender)
	if err != nil {
		return err
	}
	if user == nil {
		slog.Debug("connection event for unregistered identity", "sender", c.Sender.String(), "online", online)
		return nil
	}
	if user.Online == online {
		return nil
	}
	user.Online = online
	return c.Tables.UpdateUser(user)
}

// Me returns the caller's user row.
func Me(c *Call) (*models.User, error) {
	return registered(c)
}
