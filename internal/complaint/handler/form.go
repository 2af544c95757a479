package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"complaintdesk/internal/blob"
	"complaintdesk/internal/complaint/models"
	dErrors "complaintdesk/pkg/domain-errors"
	pstrings "complaintdesk/pkg/platform/strings"
	"complaintdesk/pkg/requestcontext"
)

// maxMemory is the multipart size kept in memory before spilling to disk.
const maxMemory = 32 << 20

// form wraps a parsed request form and the attachment handles opened from it.
type form struct {
	r       *http.Request
	logger  *slog.Logger
	closers []io.Closer
}

// parseForm accepts multipart and urlencoded bodies.
func parseForm(r *http.Request, logger *slog.Logger) (*form, error) {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid form body")
	}
	return &form{r: r, logger: logger}, nil
}

func (f *form) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}

func (f *form) value(key string) string {
	return f.r.FormValue(key)
}

func (f *form) values(key string) []string {
	return pstrings.SplitList(f.r.Form[key])
}

func (f *form) flag(key string) bool {
	switch strings.ToLower(strings.TrimSpace(f.value(key))) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// files opens every attachment under field. An attachment that cannot be
// read is logged and skipped; the rest of the operation goes ahead.
func (f *form) files(field string) []blob.File {
	if f.r.MultipartForm == nil {
		return nil
	}
	headers := f.r.MultipartForm.File[field]
	out := make([]blob.File, 0, len(headers))
	for _, fh := range headers {
		file, err := f.open(fh)
		if err != nil {
			f.logger.WarnContext(f.r.Context(), "skipping unreadable attachment",
				"field", field,
				"filename", fh.Filename,
				"request_id", requestcontext.RequestID(f.r.Context()),
				"error", err,
			)
			continue
		}
		out = append(out, file)
	}
	return out
}

// file returns the first readable file under field, or nil when none was sent.
func (f *form) file(field string) *blob.File {
	files := f.files(field)
	if len(files) == 0 {
		return nil
	}
	return &files[0]
}

func (f *form) open(fh *multipart.FileHeader) (blob.File, error) {
	src, err := fh.Open()
	if err != nil {
		return blob.File{}, err
	}
	f.closers = append(f.closers, src)
	return blob.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     src,
	}, nil
}

func (f *form) complainant() models.ComplainantInput {
	return models.ComplainantInput{
		Name:              f.value("complainant_name"),
		NationalID:        f.value("national_id"),
		Phone:             f.value("phone"),
		Email:             f.value("email"),
		Address:           f.value("address"),
		LetterChannel:     f.value("letter_channel"),
		LetterDestination: f.value("letter_destination"),
	}
}

func (f *form) incident() models.IncidentInput {
	return models.IncidentInput{
		ProductName:  f.value("product_name"),
		ShopName:     f.value("shop_name"),
		Location:     f.value("location"),
		IncidentDate: f.value("incident_date"),
		Damage:       f.value("damage"),
		Details:      f.value("details"),
	}
}

func (f *form) intake() models.IntakeInput {
	return models.IntakeInput{
		ComplaintNumber:     f.value("complaint_number"),
		ReceivedDate:        f.value("received_date"),
		OriginalDocNumber:   f.value("original_doc_number"),
		OriginalDocDate:     f.value("original_doc_date"),
		Channel:             f.value("channel"),
		ComplaintType:       f.value("complaint_type"),
		District:            f.value("district"),
		RelatedActs:         f.values("related_acts"),
		IsSafetyHealth:      f.flag("is_safety_health"),
		ResponsiblePersonID: f.value("responsible_person_id"),
	}
}

// fines decodes the "fines" field, a JSON array of {act, section, amount}.
func (f *form) fines() ([]models.FineEntry, error) {
	raw := strings.TrimSpace(f.value("fines"))
	if raw == "" {
		return nil, nil
	}
	var entries []fineJSON
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, dErrors.Validation(map[string]string{"fines": "must be a JSON array of fine entries"})
	}
	out := make([]models.FineEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.FineEntry{Act: e.Act, Section: e.Section, Amount: string(e.Amount)})
	}
	return out, nil
}

type fineJSON struct {
	Act     string     `json:"act"`
	Section string     `json:"section"`
	Amount  flexAmount `json:"amount"`
}

// flexAmount accepts an amount sent as a JSON number or string.
type flexAmount string

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = flexAmount(str)
		return nil
	}
	*a = flexAmount(s)
	return nil
}
