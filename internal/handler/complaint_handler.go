package handler

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"taskdesk/internal/domain"
	"taskdesk/internal/middleware"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/complaint"
)

type ComplaintHandler struct {
	complaintService complaint.Service
}

func NewComplaintHandler(complaintService complaint.Service) *ComplaintHandler {
	return &ComplaintHandler{complaintService: complaintService}
}

func (h *ComplaintHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	result, err := h.complaintService.List(c.Context(), p, complaint.ListInput{
		Search: c.Query("search"),
		Status: domain.ComplaintStatus(c.Query("status")),
		Type:   domain.ComplaintType(c.Query("complaint_type")),
		Tag:    c.Query("tag"),
		Page:   getPage(c),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ComplaintHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "complaint")
	if err != nil {
		return err
	}

	result, err := h.complaintService.GetByID(c.Context(), p, id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// Create accepts JSON or a multipart form whose "attachments" files are stored with the complaint.
func (h *ComplaintHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var input domain.CreateComplaintInput
	form, err := multipartForm(c)
	if err != nil {
		return err
	}
	if form != nil {
		input.ComplaintType = domain.ComplaintType(formValue(form, "complaint_type"))
		input.Subject = formValue(form, "subject")
		input.Message = formValue(form, "message")
		if input.TagIDs, err = formIDs(form, "tags"); err != nil {
			return err
		}
	} else if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	files, closeFiles, err := formFiles(form, "attachments")
	if err != nil {
		return err
	}
	defer closeFiles()

	result, err := h.complaintService.Create(c.Context(), p, input, files)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *ComplaintHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "complaint")
	if err != nil {
		return err
	}

	var input domain.UpdateComplaintInput
	form, err := multipartForm(c)
	if err != nil {
		return err
	}
	if form != nil {
		if v, ok := form.Value["complaint_type"]; ok && len(v) > 0 {
			t := domain.ComplaintType(v[0])
			input.ComplaintType = &t
		}
		if v, ok := form.Value["subject"]; ok && len(v) > 0 {
			input.Subject = &v[0]
		}
		if v, ok := form.Value["message"]; ok && len(v) > 0 {
			input.Message = &v[0]
		}
		if v, ok := form.Value["status"]; ok && len(v) > 0 {
			status := domain.ComplaintStatus(v[0])
			input.Status = &status
		}
		if _, ok := form.Value["tags"]; ok {
			ids, err := formIDs(form, "tags")
			if err != nil {
				return err
			}
			input.TagIDs = &ids
		}
	} else if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	files, closeFiles, err := formFiles(form, "attachments")
	if err != nil {
		return err
	}
	defer closeFiles()

	result, err := h.complaintService.Update(c.Context(), p, id, input, files, middleware.ClientInfo(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ComplaintHandler) Resolve(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "complaint")
	if err != nil {
		return err
	}

	result, err := h.complaintService.Resolve(c.Context(), p, id, middleware.ClientInfo(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *ComplaintHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id", "complaint")
	if err != nil {
		return err
	}

	if err := h.complaintService.Delete(c.Context(), p, id, middleware.ClientInfo(c)); err != nil {
		return err
	}

	return noContent(c)
}

// multipartForm returns nil for non-multipart requests.
func multipartForm(c *fiber.Ctx) (*multipart.Form, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, middleware.BadRequest("Invalid multipart form")
	}
	return form, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formIDs accepts repeated fields as well as a single comma-separated value.
func formIDs(form *multipart.Form, key string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for _, raw := range form.Value[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, middleware.BadRequest("Invalid " + key + " value")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func formFiles(form *multipart.Form, key string) ([]attachment.File, func(), error) {
	var (
		files   []attachment.File
		closers []multipart.File
	)
	closeAll := func() {
		for _, f := range closers {
			f.Close()
		}
	}
	if form == nil {
		return nil, closeAll, nil
	}

	for _, header := range form.File[key] {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, middleware.BadRequest("Failed to read file")
		}
		closers = append(closers, f)
		files = append(files, attachment.File{
			Upload: domain.Upload{
				FileName:    header.Filename,
				Size:        header.Size,
				ContentType: header.Header.Get(fiber.HeaderContentType),
			},
			Reader: f,
		})
	}
	return files, closeAll, nil
}
