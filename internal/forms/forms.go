package forms

import (
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"adboard/internal/model"
	"adboard/internal/storage"
)

// DateLayout is the renewal date format used by the add form
const DateLayout = "2006-01-02"

// AdForm is the "add advertisement" form
type AdForm struct {
	CompanyName string `form:"company_name" validate:"required,max=100"`
	Location    string `form:"location" validate:"required,max=255"`
	RenewalDate string `form:"renewal_date" validate:"required,datetime=2006-01-02"`
	Amount      string `form:"amount" validate:"required,money"`

	// Image is optional and bound separately from the multipart body
	Image *multipart.FileHeader `form:"-"`
}

// Validate checks the form and converts it to typed input
func (f *AdForm) Validate() (*model.CreateAdvertisementInput, FieldErrors) {
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	f.Location = strings.TrimSpace(f.Location)
	f.RenewalDate = strings.TrimSpace(f.RenewalDate)
	f.Amount = strings.TrimSpace(f.Amount)

	errs := check(f)
	if f.Image != nil {
		if err := storage.CheckImage(f.Image); err != nil {
			errs.Add("image", err.Error())
		}
	}
	if errs.Any() {
		return nil, errs
	}

	// Both parse calls are guaranteed by the tags above
	renewal, _ := time.Parse(DateLayout, f.RenewalDate)
	amount, _ := strconv.ParseFloat(f.Amount, 64)
	return &model.CreateAdvertisementInput{
		CompanyName: f.CompanyName,
		Location:    f.Location,
		RenewalDate: renewal,
		Amount:      amount,
	}, nil
}

// RegisterForm creates a user. Role defaults to "user".
type RegisterForm struct {
	Identity        string `form:"identity" validate:"required,max=255"`
	Password        string `form:"password" validate:"required,min=6,maxbytes=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `form:"role" validate:"omitempty,oneof=user admin"`
}

// RegisterInput is the validated registration
type RegisterInput struct {
	Identity string
	Password string
	Role     string
}

func (f *RegisterForm) Validate() (*RegisterInput, FieldErrors) {
	f.Identity = strings.TrimSpace(f.Identity)
	f.Role = strings.TrimSpace(f.Role)

	if errs := check(f); errs.Any() {
		return nil, errs
	}
	role := f.Role
	if role == "" {
		role = model.RoleUser
	}
	return &RegisterInput{Identity: f.Identity, Password: f.Password, Role: role}, nil
}

// LoginForm only checks presence; credentials are checked by the auth service
type LoginForm struct {
	Identity string `form:"identity" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *LoginForm) Validate() FieldErrors {
	f.Identity = strings.TrimSpace(f.Identity)
	return check(f)
}
