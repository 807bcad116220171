package users

type UserRepo interface {
	Upsert(account *Account) error
	GetByEmail(email string) (*Account, error)
	GetByID(ID string) (*Account, error)
	GetByVerificationToken(token string) (*Account, error)
	SetVerified(email string, verified bool) error
	SetPasswordHash(email, hash string) error
	SetVerificationToken(email, token string) error
}
