package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"nfpharmacy/internal/statements"
	"nfpharmacy/pkg/types"
)

const multipartMemory = 8 << 20

type processResponse struct {
	OK  bool                      `json:"ok"`
	Row *statements.ProcessResult `json:"row"`
}

type uploadResponse struct {
	OK   bool                      `json:"ok"`
	Rows []statements.ImportResult `json:"rows"`
}

type saveForm struct {
	FileName      string   `form:"fileName"`
	AccountNumber string   `form:"account_number"`
	FirstName     string   `form:"first_name"`
	DOB           string   `form:"dob"`
	ProfileID     string   `form:"profile_id"`
	Confidence    *float64 `form:"confidence"`
}

type saveResponse struct {
	OK          bool   `json:"ok"`
	ID          string `json:"id"`
	StoragePath string `json:"storage_path"`
}

type sendRequest struct {
	StatementIDs []string `json:"statementIds"`
}

type sendResponse struct {
	OK      bool                    `json:"ok"`
	Results []statements.SendResult `json:"results"`
}

type verifyRequest struct {
	ID  string `json:"id"`
	OTP string `json:"otp"`
}

type verifyResponse struct {
	OK  bool   `json:"ok"`
	URL string `json:"url"`
}

type recentResponse struct {
	OK         bool               `json:"ok"`
	Statements []*types.Statement `json:"statements"`
}

func (s *Service) handleRecent(w http.ResponseWriter, r *http.Request) {
	var limit uint64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	list, err := s.statements.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recentResponse{OK: true, Statements: list})
}

func (s *Service) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}

	upload, err := formUpload(r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if name := r.FormValue("fileName"); name != "" {
		upload.FileName = name
	}
	if raw := r.FormValue("size"); raw != "" {
		if size, err := strconv.ParseInt(raw, 10, 64); err == nil {
			upload.Size = size
		}
	}

	row, err := s.statements.Process(r.Context(), upload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, processResponse{OK: true, Row: row})
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, r, statements.ErrNoFile)
		return
	}

	uploads := make([]statements.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			s.requestLogger(r).WithError(err).WithField("file_name", header.Filename).Error("failed to read uploaded file")
			s.internalServerError(w)
			return
		}
		uploads = append(uploads, upload)
	}

	writeJSON(w, http.StatusOK, uploadResponse{OK: true, Rows: s.statements.Import(r.Context(), uploads)})
}

func (s *Service) handleSave(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}

	upload, err := formUpload(r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var f saveForm
	if err := decoder.Decode(&f, r.MultipartForm.Value); err != nil {
		s.requestLogger(r).WithError(err).Warn("failed to decode save form")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}

	fileName := f.FileName
	if fileName == "" {
		fileName = upload.FileName
	}

	statement, err := s.statements.Save(r.Context(), statements.SaveInput{
		FileName:      fileName,
		Content:       upload.Content,
		AccountNumber: optional(f.AccountNumber),
		FirstName:     optional(f.FirstName),
		DOB:           optional(f.DOB),
		ProfileID:     optional(f.ProfileID),
		Confidence:    f.Confidence,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, saveResponse{OK: true, ID: statement.ID, StoragePath: statement.StoragePath})
}

func (s *Service) handleSend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256*1024)

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	results, err := s.statements.Notify(r.Context(), req.StatementIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ok := true
	for _, result := range results {
		if result.Status == statements.SendStatusFailed {
			ok = false
			break
		}
	}

	writeJSON(w, http.StatusOK, sendResponse{OK: ok, Results: results})
}

func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, statements.ErrMissingInputs)
		return
	}

	url, err := s.statements.Verify(r.Context(), req.ID, req.OTP)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{OK: true, URL: url})
}

// parseMultipart bounds the request body and parses the form. It writes the
// error response itself and reports whether the handler should continue.
func (s *Service) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadMB<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
			return false
		}
		if errors.Is(err, http.ErrNotMultipart) {
			s.writeError(w, r, statements.ErrNoFile)
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return false
	}

	return true
}

func formUpload(r *http.Request, field string) (statements.Upload, error) {
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return statements.Upload{}, statements.ErrNoFile
	}
	return readUpload(headers[0])
}

func readUpload(header *multipart.FileHeader) (statements.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return statements.Upload{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return statements.Upload{}, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	return statements.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Content:  content,
	}, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
