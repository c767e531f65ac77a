package user

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Phone        string
	Address      string
	CreatedUnix  int64
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
