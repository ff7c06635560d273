package model

import (
	"errors"

	"ferdi-server/backend/common"

	"github.com/burugo/thing"
)

// User is an account on this server. The Username column carries the first
// name; the column name is kept from the original Ferdi schema so existing
// databases keep working.
type User struct {
	thing.BaseModel
	Email    string `db:"email,unique" json:"email"`
	Password string `db:"password" json:"-"`
	Username string `db:"username" json:"firstname"`
	Lastname string `db:"lastname" json:"lastname"`
	Settings string `db:"settings" json:"-"`
}

func (u *User) TableName() string {
	return "users"
}

var UserDB *thing.Thing[*User]

func UserInit() error {
	var err error
	UserDB, err = thing.Use[*User]()
	return err
}

func GetUserById(id int64) (*User, error) {
	if id == 0 {
		return nil, errors.New("user id is empty")
	}
	user, err := UserDB.ByID(id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func IsEmailAlreadyTaken(email string) bool {
	users, err := UserDB.Where("email = ?", email).Fetch(0, 1)
	return err == nil && len(users) > 0
}

// Insert hashes a non-empty plaintext password before saving.
func (user *User) Insert() error {
	if user.Password != "" {
		var err error
		user.Password, err = common.Password2Hash(user.Password)
		if err != nil {
			return err
		}
	}
	return UserDB.Save(user)
}

func (user *User) Update() error {
	return UserDB.Save(user)
}

// ValidateAndFill checks the credentials on the receiver against the stored
// hash and, on success, fills the receiver with the stored record.
func (user *User) ValidateAndFill() error {
	if user.Email == "" || user.Password == "" {
		return errors.New("email or password is empty")
	}
	users, err := UserDB.Where("email = ?", user.Email).Fetch(0, 1)
	if err != nil || len(users) == 0 {
		return errors.New("user credentials not valid")
	}
	found := users[0]
	if !common.ValidatePasswordAndHash(user.Password, found.Password) {
		return errors.New("user credentials not valid")
	}
	*user = *found
	return nil
}

func (user *User) FillUserByEmail() error {
	if user.Email == "" {
		return errors.New("email is empty")
	}
	users, err := UserDB.Where("email = ?", user.Email).Fetch(0, 1)
	if err != nil || len(users) == 0 {
		return errors.New("user not found")
	}
	*user = *users[0]
	return nil
}

// SettingsMap returns the profile settings overlay stored on the user.
func (user *User) SettingsMap() map[string]any {
	return DecodeBlob(user.Settings)
}

func (user *User) SetSettingsMap(m map[string]any) {
	user.Settings = EncodeBlob(m)
}
