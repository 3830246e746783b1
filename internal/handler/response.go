package handler

import (
	"strconv"
	"strings"
	"time"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError writes err in the StandardError shape with its mapped status.
func respondError(c *fiber.Ctx, err error) error {
	se := apperror.From(err)
	if se.Code == apperror.CodeInternal {
		// Storage details stay in the logs.
		return c.Status(se.HTTPStatus()).JSON(apperror.New(apperror.CodeInternal, "internal server error", ""))
	}
	return c.Status(se.HTTPStatus()).JSON(se)
}

// getUserID returns the token subject set by RequireAuth.
func getUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return "system"
}

func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		return apperror.Validation("invalid JSON body", "body")
	}
	return nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid "+name, name)
	}
	return id, nil
}

func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid "+name, name)
	}
	return &id, nil
}

func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(name+" must be an integer", name)
	}
	return n, nil
}

func queryBool(c *fiber.Ctx, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperror.Validation(name+" must be true or false", name)
	}
	return &b, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates. With endOfDay a
// plain date covers the whole day.
func queryTime(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, apperror.Validation(name+" must be RFC 3339 or YYYY-MM-DD", name)
}

// queryPage reads skip/limit and applies the default and maximum page size.
func queryPage(c *fiber.Ctx, limits service.PageLimits) (repository.Page, error) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		return repository.Page{}, err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return repository.Page{}, err
	}
	return limits.Normalize(repository.Page{Skip: skip, Limit: limit})
}

// list writes a page of results with its total.
func list(c *fiber.Ctx, data interface{}, total int64, page repository.Page) error {
	return c.JSON(fiber.Map{
		"data":  data,
		"total": total,
		"skip":  page.Skip,
		"limit": page.Limit,
	})
}
