// Package validation checks every externally supplied field before it reaches
// storage. The checks are pure: they never touch the filesystem and never
// modify their input. Each returns nil or an error whose message is the
// human-readable reason.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Drakz0n/CommFlow/internal/model"
)

const (
	MaxIDLength          = 64
	MaxNameLength        = 255
	MaxDescriptionLength = 10000
	MaxEmailLength       = 320
	MaxContactLength     = 50
	MaxFilenameLength    = 255

	// MaxPriceCents is $9,999,999.99.
	MaxPriceCents int64 = 999_999_999

	// InlineImagePrefix marks an image reference that carries its data
	// inline instead of pointing at a file.
	InlineImagePrefix = "data:image/"
)

// ErrInvalid is matched by every error returned from this package, so callers
// can tell bad input apart from I/O failures with errors.Is.
var ErrInvalid = errors.New("validation failed")

// Error carries the reason a field was rejected.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// Is lets errors.Is(err, ErrInvalid) match.
func (e *Error) Is(target error) bool { return target == ErrInvalid }

var (
	idPattern    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// pathHazards covers traversal and characters that are illegal or
	// meaningful in a path segment on at least one platform.
	pathHazards = []string{"..", "/", "\\", "<", ">", "|", ":", "*", "?", "\""}

	emailHazards       = []string{"<", ">", "&", "\"", "'", "`"}
	contactHazards     = []string{"<", ">", "&"}
	descriptionHazards = []string{"<script", "javascript:", "onload=", "onerror="}
	imagePathHazards   = []string{"\\", "|", "<", ">"}

	allowedImageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "webp"}
)

// ID accepts 1-64 characters of [A-Za-z0-9_]. Separators and dots are
// rejected by construction, which is what makes an ID usable as a filename.
func ID(id string) error {
	return check(id,
		ozzo.Required.Error("ID cannot be empty"),
		ozzo.RuneLength(1, MaxIDLength).Error(fmt.Sprintf("ID too long (max %d chars)", MaxIDLength)),
		ozzo.Match(idPattern).Error("ID contains invalid characters (only alphanumeric and underscore allowed)"),
	)
}

// Name validates a display name. field is used as the subject of the error
// message, e.g. "Client name" or "Commission title".
func Name(name, field string) error {
	return check(name,
		ozzo.Required.Error(field+" cannot be empty"),
		ozzo.RuneLength(1, MaxNameLength).Error(fmt.Sprintf("%s too long (max %d chars)", field, MaxNameLength)),
		rejectAny(pathHazards, field+" contains invalid characters"),
	)
}

// Email is optional. A value that does not look like an address is still
// accepted as free-form contact text unless it carries markup characters.
func Email(email string) error {
	return check(email,
		ozzo.RuneLength(0, MaxEmailLength).Error("Email too long"),
		ozzo.By(func(value interface{}) error {
			s, _ := value.(string)
			if s == "" || emailPattern.MatchString(s) {
				return nil
			}
			if containsAny(s, emailHazards) {
				return errors.New("Email contains invalid characters")
			}
			return nil
		}),
	)
}

// Contact is optional.
func Contact(contact string) error {
	return check(contact,
		ozzo.RuneLength(0, MaxContactLength).Error("Contact too long"),
		rejectAny(contactHazards, "Contact contains invalid characters"),
	)
}

// Description is a best-effort XSS screen, not a sanitizer.
func Description(description string) error {
	return check(description,
		ozzo.RuneLength(0, MaxDescriptionLength).Error(fmt.Sprintf("Description too long (max %d chars)", MaxDescriptionLength)),
		rejectAny(descriptionHazards, "Description contains potentially dangerous content"),
	)
}

// Filename validates the name of an uploaded image.
func Filename(filename string) error {
	return check(filename,
		ozzo.Required.Error("Filename cannot be empty"),
		ozzo.RuneLength(1, MaxFilenameLength).Error("Filename too long"),
		rejectAny(pathHazards, "Filename contains invalid characters"),
		ozzo.By(func(value interface{}) error {
			s, _ := value.(string)
			dot := strings.LastIndex(s, ".")
			if dot < 0 {
				return errors.New("Filename must have an extension")
			}
			ext := strings.ToLower(s[dot+1:])
			for _, allowed := range allowedImageExtensions {
				if ext == allowed {
					return nil
				}
			}
			return errors.New("Invalid file extension")
		}),
	)
}

// Status accepts exactly one of the commission statuses.
func Status(status model.Status) error {
	return check(status,
		ozzo.Required.Error("Invalid status value"),
		ozzo.In(statusValues()...).Error("Invalid status value"),
	)
}

// PaymentStatus accepts exactly one of the payment statuses.
func PaymentStatus(status model.PaymentStatus) error {
	return check(status,
		ozzo.Required.Error("Invalid payment status value"),
		ozzo.In(paymentStatusValues()...).Error("Invalid payment status value"),
	)
}

// PriceCents accepts 0 through MaxPriceCents.
func PriceCents(cents int64) error {
	return check(cents,
		ozzo.Min(int64(0)).Error("Price cannot be negative"),
		ozzo.Max(MaxPriceCents).Error("Price too large"),
	)
}

// ImagePath validates a stored image reference. Inline data URLs are not
// paths and pass unconditionally; everything else must be a bare filename or
// live under images/.
func ImagePath(path string) error {
	if strings.HasPrefix(path, InlineImagePrefix) {
		return nil
	}
	invalid := &Error{Reason: "Invalid image path detected"}
	if strings.Contains(path, "..") {
		return invalid
	}
	if strings.Contains(path, "/") && !strings.HasPrefix(path, "images/") {
		return invalid
	}
	if containsAny(path, imagePathHazards) {
		return invalid
	}
	return nil
}

// Timestamps requires both record timestamps to be present. Their format is
// not checked; older files carry whatever the writer produced.
func Timestamps(createdAt, updatedAt string) error {
	if createdAt == "" || updatedAt == "" {
		return &Error{Reason: "Timestamps cannot be empty"}
	}
	return nil
}

func statusValues() []interface{} {
	statuses := model.Statuses()
	out := make([]interface{}, len(statuses))
	for i, s := range statuses {
		out[i] = s
	}
	return out
}

func paymentStatusValues() []interface{} {
	statuses := model.PaymentStatuses()
	out := make([]interface{}, len(statuses))
	for i, s := range statuses {
		out[i] = s
	}
	return out
}

// check runs rules in order and converts the first failure into *Error.
func check(value interface{}, rules ...ozzo.Rule) error {
	if err := ozzo.Validate(value, rules...); err != nil {
		return &Error{Reason: err.Error()}
	}
	return nil
}

func rejectAny(needles []string, reason string) ozzo.Rule {
	return ozzo.By(func(value interface{}) error {
		s, _ := value.(string)
		if containsAny(s, needles) {
			return errors.New(reason)
		}
		return nil
	})
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
