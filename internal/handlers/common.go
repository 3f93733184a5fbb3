// common.go
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

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/relationsdb/internal/middleware"
	"github.com/localnerve/relationsdb/internal/services"
	"github.com/localnerve/relationsdb/internal/types"
	"github.com/localnerve/relationsdb/internal/utils"
)

// Hosts are the command hosts a handler runs against. Writes go to the app
// pool; list reads may use the read-only user pool.
type Hosts struct {
	Commands *services.Host
	Reads    *services.Host
}

func (h Hosts) reads() *services.Host {
	if h.Reads != nil {
		return h.Reads
	}
	return h.Commands
}

// AppConfig is the Fiber configuration the routes expect. Names travel in
// path parameters and may hold spaces or any letter, so paths are matched
// and read unescaped.
func AppConfig() fiber.Config {
	return fiber.Config{
		ErrorHandler: ErrorHandler,
		UnescapePath: true,
	}
}

// StatusOf maps a failure class to its HTTP status
func StatusOf(kind services.Kind) int {
	switch kind.Class() {
	case services.ClassNotFound:
		return fiber.StatusNotFound
	case services.ClassInvalid:
		return fiber.StatusBadRequest
	case services.ClassAuthorization:
		return fiber.StatusForbidden
	case services.ClassAlreadyExists, services.ClassStateConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// run invokes a command for the authenticated caller
func run(c *fiber.Ctx, host *services.Host, command string, fn func(*services.Call) error) error {
	sender, ok := middleware.Caller(c)
	if !ok {
		return types.Errorf(fiber.StatusForbidden, "relations.authorization.user", "caller identity not found in context")
	}
	return host.Invoke(c.UserContext(), sender, command, fn)
}

// respond renders the outcome of a command
func respond(c *fiber.Ctx, command string, err error, status int, result interface{}) error {
	if err != nil {
		return commandError(c, command, err)
	}
	return utils.CommandSuccessResponse(c, status, result)
}

func commandError(c *fiber.Ctx, command string, err error) error {
	var failure *services.Failure
	if errors.As(err, &failure) {
		return utils.FailureResponse(c, failure.Reason, StatusOf(failure.Kind), "relations."+command, string(failure.Kind))
	}
	var custom *types.CustomError
	if errors.As(err, &custom) {
		return err
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "relations."+command)
}

func invalidInput(message string) error {
	return types.Errorf(fiber.StatusBadRequest, "relations.validation.input", "%s", message)
}

// paramID parses a numeric path parameter
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidInput(fmt.Sprintf("Invalid %s id %q", name, c.Params(name)))
	}
	return id, nil
}

// page reads the after and limit query parameters of a message log read
func page(c *fiber.Ctx) (int64, int, error) {
	var after int64
	if v := c.Query("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, invalidInput(fmt.Sprintf("Invalid after %q", v))
		}
		after = n
	}
	return after, c.QueryInt("limit", services.DefaultPageSize), nil
}

// ErrorHandler renders errors that reach Fiber as JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"
	kind := ""

	var fe *fiber.Error
	var custom *types.CustomError
	var failure *services.Failure
	switch {
	case errors.As(err, &custom):
		code, message, errorType = custom.Code, custom.Message, custom.Type
	case errors.As(err, &failure):
		code, message, errorType, kind = StatusOf(failure.Kind), failure.Reason, "relations.command", string(failure.Kind)
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("request failed", "url", c.OriginalURL(), "error", err)
	}

	body := fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	}
	if kind != "" {
		body["kind"] = kind
	}
	return c.Status(code).JSON(body)
}
