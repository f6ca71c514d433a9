// Package importer bulk-loads user accounts from a CSV export of the staff directory.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/service/attachment"
	"taskdesk/internal/service/user"
)

const DefaultPassword = "changeme123"

const (
	colFirstName = "First Name"
	colLastName  = "Last Name"
	colLogin     = "Login ID"
	colPassword  = "Password"
	colEmail     = "Email Address"
	colPhone     = "Phone No."
	colRole      = "Role"
)

type Result struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type UserImporter struct {
	users     user.Service
	avatarDir string
	log       *zap.Logger
}

// NewUserImporter links avatars named <login id>.jpg from avatarDir when it is set.
func NewUserImporter(users user.Service, avatarDir string) *UserImporter {
	return &UserImporter{
		users:     users,
		avatarDir: avatarDir,
		log:       logger.WithModule("import"),
	}
}

// Import creates one account per row. Rows with a missing or existing login id are skipped
// and a failing row never stops the import.
func (im *UserImporter) Import(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := columns["Phone No"]; ok {
		if _, dotted := columns[colPhone]; !dotted {
			columns[colPhone] = columns["Phone No"]
		}
	}
	if _, ok := columns[colLogin]; !ok {
		return Result{}, fmt.Errorf("missing %q column", colLogin)
	}

	var result Result
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read row %d: %w", row, err)
		}
		result.Total++

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		switch im.importRow(ctx, row, field) {
		case rowCreated:
			result.Created++
		case rowSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	im.log.Info("import complete",
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowSkipped
	rowFailed
)

func (im *UserImporter) importRow(ctx context.Context, row int, field func(string) string) rowOutcome {
	username := field(colLogin)
	if username == "" {
		im.log.Warn("missing login id, row skipped", zap.Int("row", row))
		return rowSkipped
	}

	password := field(colPassword)
	if password == "" {
		password = DefaultPassword
	}
	isAdmin := strings.EqualFold(field(colRole), "admin")

	created, err := im.users.Create(ctx, domain.CreateUserInput{
		Username:    username,
		Email:       field(colEmail),
		FirstName:   field(colFirstName),
		LastName:    field(colLastName),
		Password:    password,
		Phone:       field(colPhone),
		IsStaff:     isAdmin,
		IsSuperuser: isAdmin,
	})
	if errors.Is(err, domain.ErrConflict) {
		im.log.Warn("user already exists, row skipped", zap.Int("row", row), zap.String("username", username))
		return rowSkipped
	}
	if err != nil {
		im.log.Error("row failed", zap.Int("row", row), zap.String("username", username), zap.Error(err))
		return rowFailed
	}

	im.linkAvatar(ctx, created)
	return rowCreated
}

func (im *UserImporter) linkAvatar(ctx context.Context, u *domain.User) {
	if im.avatarDir == "" {
		return
	}
	path := filepath.Join(im.avatarDir, u.Username+".jpg")
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}

	_, err = im.users.SetAvatar(ctx, u.ID, attachment.File{
		Upload: domain.Upload{
			FileName:    filepath.Base(path),
			Size:        info.Size(),
			ContentType: "image/jpeg",
		},
		Reader: f,
	})
	if err != nil {
		im.log.Warn("avatar not linked", zap.String("username", u.Username), zap.Error(err))
		return
	}
	im.log.Info("avatar linked", zap.String("username", u.Username))
}
