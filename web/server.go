// Package web exposes a minimal read-only HTTP API over the moderation
// records. It never mutates anything; persistent enforcement failures show up
// here as overdue active sanctions.
package web

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"moderation-bot/model"
	"moderation-bot/moderation"
)

// NewApp builds the Fiber application serving the read-only API.
func NewApp(svc *moderation.Service) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	api := app.Group("/api")

	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "moderation-bot",
			"status":  "ok",
		})
	})

	guilds := api.Group("/guilds/:guildID")

	guilds.Get("/infractions", func(c *fiber.Ctx) error {
		records, err := svc.EnumerateInfractions(c.Params("guildID"))
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(records)
	})

	guilds.Get("/infractions/count", func(c *fiber.Ctx) error {
		count, err := svc.GetInfractionCount(c.Params("guildID"))
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(fiber.Map{"count": count})
	})

	guilds.Get("/infractions/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid infraction id"})
		}
		record, err := svc.GetInfraction(id)
		if err != nil {
			return sendError(c, err)
		}
		if record.GuildID != c.Params("guildID") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "infraction not found"})
		}
		return c.JSON(record)
	})

	guilds.Get("/users/:userID/infractions", func(c *fiber.Ctx) error {
		records, err := svc.EnumerateUserInfractions(c.Params("guildID"), c.Params("userID"))
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(records)
	})

	guilds.Get("/mutes", listSanctions(svc, model.SanctionMute))
	guilds.Get("/bans", listSanctions(svc, model.SanctionBan))
	guilds.Get("/tracked", listSanctions(svc, model.SanctionTracking))

	return app
}

func listSanctions(svc *moderation.Service, kind model.SanctionKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.ListActiveSanctions(kind, c.Params("guildID"))
		if err != nil {
			return sendError(c, err)
		}
		return c.JSON(rows)
	}
}

func sendError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, moderation.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, moderation.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("Web API error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
