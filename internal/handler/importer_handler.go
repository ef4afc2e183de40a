package handler

import (
	"bufio"

	"github.com/gofiber/fiber/v2"

	"country-atlas-service/internal/service"
)

type ImportHandler struct {
	dataImporter service.DataImporter
	defaultURL   string
}

func NewImportHandler(dataImporter service.DataImporter, defaultURL string) *ImportHandler {
	return &ImportHandler{
		dataImporter: dataImporter,
		defaultURL:   defaultURL,
	}
}

// ImportFile loads an uploaded JSON document. The format query parameter
// selects restcountries (default) or native records.
func (h *ImportHandler) ImportFile(c *fiber.Ctx) error {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		return err
	}

	// Get the file from form data
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded: " + err.Error(),
		})
	}

	uploadedFile, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to open uploaded file: " + err.Error(),
		})
	}
	defer uploadedFile.Close()

	reader := bufio.NewReaderSize(uploadedFile, 1024*1024) // 1MB buffer

	result, err := h.dataImporter.ImportFromReader(c.UserContext(), reader, format)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":  "Import completed successfully",
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

// ImportURL fetches a restcountries payload. Without a body the configured
// source is used.
func (h *ImportHandler) ImportURL(c *fiber.Ctx) error {
	var body struct {
		URL string `json:"url"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body: " + err.Error(),
			})
		}
	}
	if body.URL == "" {
		body.URL = h.defaultURL
	}
	if body.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	result, err := h.dataImporter.ImportFromURL(c.UserContext(), body.URL)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":  "Import completed successfully",
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

func (h *ImportHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": h.dataImporter.GetImportStatus(),
	})
}

func (h *ImportHandler) ClearDatabase(c *fiber.Ctx) error {
	if err := h.dataImporter.ClearDatabase(c.UserContext()); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Database cleared successfully",
	})
}
