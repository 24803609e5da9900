package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"

	"github.com/user/track-daily/internal/apperr"
	"github.com/user/track-daily/internal/attachment"
	"github.com/user/track-daily/internal/model"
	"github.com/user/track-daily/internal/service"
)

// EntryHandler handles daily entry, attachment and chart requests.
type EntryHandler struct {
	Service  *service.EntryService
	Staging  *attachment.Manager
	Previews *attachment.PreviewStore
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(svc *service.EntryService, staging *attachment.Manager, previews *attachment.PreviewStore) *EntryHandler {
	return &EntryHandler{Service: svc, Staging: staging, Previews: previews}
}

// SaveEntryResponse is the body of a successful save. Warnings list the
// files rejected by the attachment rules; the entry itself was saved.
type SaveEntryResponse struct {
	Entry    *model.Entry `json:"entry"`
	Warnings []string     `json:"warnings,omitempty"`
}

// StageResponse reports the staging session after new files were added.
type StageResponse struct {
	Session  attachment.SessionView `json:"session"`
	Warnings []string               `json:"warnings,omitempty"`
}

// readFormFiles drains the "files" part of a multipart form. Payloads are
// capped one byte over the size limit so oversize files still reach the
// staging check and get its rejection message.
func readFormFiles(form *multipart.Form) ([]attachment.BatchFile, error) {
	if form == nil {
		return nil, nil
	}
	var files []attachment.BatchFile
	for _, fh := range form.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "Could not read uploaded file", err)
		}
		data, err := io.ReadAll(io.LimitReader(f, attachment.MaxFileSize+1))
		f.Close()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "Could not read uploaded file", err)
		}
		files = append(files, attachment.BatchFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}

// @Summary Get the entry of a date
// @Description A day without a record returns an empty entry skeleton.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} model.Entry "Entry"
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Router /entries/{date} [get]
// GetFiber is the entry read endpoint handler for Fiber.
func (h *EntryHandler) GetFiber(c *fiber.Ctx) error {
	entry, err := h.Service.Get(userIDFiber(c), c.Params("date"))
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(entry)
}

// GetGin is the entry read endpoint handler for Gin.
func (h *EntryHandler) GetGin(c *gin.Context) {
	entry, err := h.Service.Get(userIDGin(c), c.Param("date"))
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// @Summary Save the entry of a date
// @Description Accepts JSON or multipart form data. A multipart body carries "note", "activities" (JSON object) and up to 5 "files" parts. Previously staged files for the date are included. Files rejected by the attachment rules come back as warnings; the rest of the entry is still saved.
// @Tags Entries
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} SaveEntryResponse "Saved entry plus any rejected-file warnings"
// @Failure 400 {object} ErrorResponse "Validation error or date outside the editable window"
// @Router /entries/{date} [put]
// SaveFiber is the entry save endpoint handler for Fiber.
func (h *EntryHandler) SaveFiber(c *fiber.Ctx) error {
	input := service.SaveEntryInput{Date: c.Params("date")}
	var files []attachment.BatchFile

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return errorFiber(c, apperr.Wrap(apperr.KindValidation, "Invalid form data", err))
		}
		input.Note = formValue(form, "note")
		if raw := formValue(form, "activities"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &input.Answers); err != nil {
				return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid activities payload"))
			}
		}
		if files, err = readFormFiles(form); err != nil {
			return errorFiber(c, err)
		}
	} else if err := c.BodyParser(&input); err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid request body"))
	}
	input.Date = c.Params("date")

	entry, warnings, err := h.Service.Save(c.Context(), userIDFiber(c), input, files)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(SaveEntryResponse{Entry: entry, Warnings: warnings})
}

// SaveGin is the entry save endpoint handler for Gin.
func (h *EntryHandler) SaveGin(c *gin.Context) {
	input := service.SaveEntryInput{Date: c.Param("date")}
	var files []attachment.BatchFile

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			errorGin(c, apperr.Wrap(apperr.KindValidation, "Invalid form data", err))
			return
		}
		input.Note = formValue(form, "note")
		if raw := formValue(form, "activities"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &input.Answers); err != nil {
				errorGin(c, apperr.New(apperr.KindValidation, "Invalid activities payload"))
				return
			}
		}
		if files, err = readFormFiles(form); err != nil {
			errorGin(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&input); err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	input.Date = c.Param("date")

	entry, warnings, err := h.Service.Save(c.Request.Context(), userIDGin(c), input, files)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, SaveEntryResponse{Entry: entry, Warnings: warnings})
}

// @Summary Remove a saved attachment
// @Description Delete the stored file and drop its reference from the entry.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param index path int true "Attachment index"
// @Success 200 {object} model.Entry "Updated entry"
// @Failure 404 {object} ErrorResponse "Entry or attachment not found"
// @Router /entries/{date}/attachments/{index} [delete]
// RemoveAttachmentFiber is the attachment delete endpoint handler for Fiber.
func (h *EntryHandler) RemoveAttachmentFiber(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid attachment index"))
	}
	entry, err := h.Service.RemoveAttachment(c.Context(), userIDFiber(c), c.Params("date"), index)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(entry)
}

// RemoveAttachmentGin is the attachment delete endpoint handler for Gin.
func (h *EntryHandler) RemoveAttachmentGin(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid attachment index"))
		return
	}
	entry, err := h.Service.RemoveAttachment(c.Request.Context(), userIDGin(c), c.Param("date"), index)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// stage adds picked files to the cross-request staging session of a date.
func (h *EntryHandler) stage(userID, date string, form *multipart.Form) (*StageResponse, error) {
	entry, err := h.Service.Get(userID, date)
	if err != nil {
		return nil, err
	}
	files, err := readFormFiles(form)
	if err != nil {
		return nil, err
	}
	view, warnings := h.Staging.Stage(userID, date, entry.Attachments, files)
	return &StageResponse{Session: view, Warnings: warnings}, nil
}

// @Summary Stage files for a date
// @Description Hold picked files server-side before the entry is saved. Staged files get preview URLs and count against the 5-attachment limit.
// @Tags Entries
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} StageResponse "Staging session plus any rejected-file warnings"
// @Failure 400 {object} ErrorResponse "Invalid date or form data"
// @Router /entries/{date}/files [post]
// StageFilesFiber is the file staging endpoint handler for Fiber.
func (h *EntryHandler) StageFilesFiber(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorFiber(c, apperr.Wrap(apperr.KindValidation, "Invalid form data", err))
	}
	resp, err := h.stage(userIDFiber(c), c.Params("date"), form)
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// StageFilesGin is the file staging endpoint handler for Gin.
func (h *EntryHandler) StageFilesGin(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		errorGin(c, apperr.Wrap(apperr.KindValidation, "Invalid form data", err))
		return
	}
	resp, err := h.stage(userIDGin(c), c.Param("date"), form)
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary View the staging session of a date
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} attachment.SessionView "Persisted and staged files"
// @Router /entries/{date}/files [get]
// StagedFilesFiber is the staging session read endpoint handler for Fiber.
func (h *EntryHandler) StagedFilesFiber(c *fiber.Ctx) error {
	entry, err := h.Service.Get(userIDFiber(c), c.Params("date"))
	if err != nil {
		return errorFiber(c, err)
	}
	view := h.Staging.View(userIDFiber(c), c.Params("date"), entry.Attachments)
	return c.Status(fiber.StatusOK).JSON(view)
}

// StagedFilesGin is the staging session read endpoint handler for Gin.
func (h *EntryHandler) StagedFilesGin(c *gin.Context) {
	entry, err := h.Service.Get(userIDGin(c), c.Param("date"))
	if err != nil {
		errorGin(c, err)
		return
	}
	view := h.Staging.View(userIDGin(c), c.Param("date"), entry.Attachments)
	c.JSON(http.StatusOK, view)
}

// @Summary Remove a staged file
// @Description Drop a not-yet-saved file from the staging session and release its preview.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param index path int true "Staged file index"
// @Success 204 "Removed"
// @Failure 404 {object} ErrorResponse "No staged file at that index"
// @Router /entries/{date}/files/{index} [delete]
// RemoveStagedFiber is the staged file delete endpoint handler for Fiber.
func (h *EntryHandler) RemoveStagedFiber(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return errorFiber(c, apperr.New(apperr.KindValidation, "Invalid file index"))
	}
	if !h.Staging.RemoveStaged(userIDFiber(c), c.Params("date"), index) {
		return errorFiber(c, apperr.New(apperr.KindNotFound, "Staged file not found"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveStagedGin is the staged file delete endpoint handler for Gin.
func (h *EntryHandler) RemoveStagedGin(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		errorGin(c, apperr.New(apperr.KindValidation, "Invalid file index"))
		return
	}
	if !h.Staging.RemoveStaged(userIDGin(c), c.Param("date"), index) {
		errorGin(c, apperr.New(apperr.KindNotFound, "Staged file not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Fetch a staged file preview
// @Tags Entries
// @Produce octet-stream
// @Security BearerAuth
// @Param token path string true "Preview token"
// @Success 200 {file} binary "File payload"
// @Failure 404 {object} ErrorResponse "Preview expired or unknown"
// @Router /previews/{token} [get]
// PreviewFiber is the staged file preview endpoint handler for Fiber.
func (h *EntryHandler) PreviewFiber(c *fiber.Ctx) error {
	name, contentType, data, ok := h.Previews.Get(c.Params("token"))
	if !ok {
		return errorFiber(c, apperr.New(apperr.KindNotFound, "Preview not found"))
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+name+`"`)
	return c.Status(fiber.StatusOK).Send(data)
}

// PreviewGin is the staged file preview endpoint handler for Gin.
func (h *EntryHandler) PreviewGin(c *gin.Context) {
	name, contentType, data, ok := h.Previews.Get(c.Param("token"))
	if !ok {
		errorGin(c, apperr.New(apperr.KindNotFound, "Preview not found"))
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// @Summary List the entries of a month
// @Tags Months
// @Produce json
// @Security BearerAuth
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {array} model.Entry "Entries of the month, oldest first"
// @Failure 400 {object} ErrorResponse "Invalid month"
// @Router /months/{month}/entries [get]
// MonthEntriesFiber is the month entries endpoint handler for Fiber.
func (h *EntryHandler) MonthEntriesFiber(c *fiber.Ctx) error {
	entries, err := h.Service.MonthEntries(userIDFiber(c), c.Params("month"))
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(entries)
}

// MonthEntriesGin is the month entries endpoint handler for Gin.
func (h *EntryHandler) MonthEntriesGin(c *gin.Context) {
	entries, err := h.Service.MonthEntries(userIDGin(c), c.Param("month"))
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary Chart data for a month
// @Description Pie and line datasets per activity plus the notes completion aggregate.
// @Tags Months
// @Produce json
// @Security BearerAuth
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {object} service.MonthSummary "Summary"
// @Failure 400 {object} ErrorResponse "Invalid month"
// @Router /months/{month}/summary [get]
// MonthSummaryFiber is the month summary endpoint handler for Fiber.
func (h *EntryHandler) MonthSummaryFiber(c *fiber.Ctx) error {
	summary, err := h.Service.Summary(userIDFiber(c), c.Params("month"))
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// MonthSummaryGin is the month summary endpoint handler for Gin.
func (h *EntryHandler) MonthSummaryGin(c *gin.Context) {
	summary, err := h.Service.Summary(userIDGin(c), c.Param("month"))
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Browse uploaded files
// @Description Entries with attachments grouped by month, newest first. The search term matches the entry date or a file name.
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search term"
// @Success 200 {array} service.FileMonth "File groups"
// @Router /files [get]
// BrowseFilesFiber is the file browser endpoint handler for Fiber.
func (h *EntryHandler) BrowseFilesFiber(c *fiber.Ctx) error {
	months, err := h.Service.BrowseFiles(userIDFiber(c), c.Query("q"))
	if err != nil {
		return errorFiber(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(months)
}

// BrowseFilesGin is the file browser endpoint handler for Gin.
func (h *EntryHandler) BrowseFilesGin(c *gin.Context) {
	months, err := h.Service.BrowseFiles(userIDGin(c), c.Query("q"))
	if err != nil {
		errorGin(c, err)
		return
	}
	c.JSON(http.StatusOK, months)
}
