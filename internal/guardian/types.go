package guardian

// PaginationMeta はページング情報。
type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// HasNext は次のページが存在するかを返す。
func (p PaginationMeta) HasNext() bool {
	return p.CurrentPage < p.LastPage
}

// User はログインユーザー。
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Guardian は保護者プロフィール。
type Guardian struct {
	ID                   string  `json:"id"`
	NIK                  *string `json:"nik"`
	Phone                *string `json:"phone"`
	IsVerified           bool    `json:"is_verified"`
	PhoneVerifiedAt      *string `json:"phone_verified_at"`
	ApprovedMembersCount int     `json:"approved_members_count,omitempty"`
	PendingClaimsCount   int     `json:"pending_claims_count,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

// LoginRequest はログインのリクエストボディ。
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	DeviceName string `json:"device_name,omitempty"`
}

// LoginResponse はログイン・登録のレスポンス。
type LoginResponse struct {
	User      User     `json:"user"`
	Guardian  Guardian `json:"guardian"`
	Token     string   `json:"token"`
	TokenType string   `json:"token_type"`
}

// RegisterRequest は保護者登録のリクエストボディ。
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Phone                string `json:"phone" validate:"required"`
	NIK                  string `json:"nik,omitempty" validate:"omitempty,numeric,len=16"`
}

// MeResponse は /auth/me のレスポンス。
type MeResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Guardian *Guardian `json:"guardian"`
}

// User はMeResponseのユーザー部分を返す。
func (m *MeResponse) User() User {
	return User{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role}
}

// RefreshResponse はトークンリフレッシュのレスポンス。
type RefreshResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// ProfileResponse は /guardian/profile のレスポンス。
type ProfileResponse struct {
	User     User     `json:"user"`
	Guardian Guardian `json:"guardian"`
}

// Organization は所属組織。
type Organization struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SectorType string `json:"sector_type,omitempty"`
}

// MemberPermissions はメンバーに対する保護者の権限。
type MemberPermissions struct {
	IsPrimary           bool `json:"is_primary"`
	CanTopup            bool `json:"can_topup"`
	CanViewTransactions bool `json:"can_view_transactions"`
	CanSetLimits        bool `json:"can_set_limits"`
}

// Relationship はメンバーとの続柄。
type Relationship string

const (
	RelationshipParent   Relationship = "parent"
	RelationshipGuardian Relationship = "guardian"
	RelationshipOther    Relationship = "other"
)

// Member は保護対象のメンバー。
type Member struct {
	ID           string            `json:"id"`
	MemberNumber string            `json:"member_number"`
	Name         string            `json:"name"`
	PhotoURL     *string           `json:"photo_url,omitempty"`
	BirthDate    string            `json:"birth_date,omitempty"`
	Gender       string            `json:"gender,omitempty"`
	Grade        string            `json:"grade,omitempty"`
	ClassName    string            `json:"class_name,omitempty"`
	IsActive     *bool             `json:"is_active,omitempty"`
	Organization Organization      `json:"organization"`
	Wallets      []Wallet          `json:"wallets,omitempty"`
	ClaimStatus  string            `json:"claim_status,omitempty"`
	Relationship Relationship      `json:"relationship,omitempty"`
	Permissions  MemberPermissions `json:"permissions"`
}

// MemberRef はレスポンスに埋め込まれるメンバーの要約。
type MemberRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MemberNumber string `json:"member_number,omitempty"`
}

// MembersResponse はメンバー一覧のレスポンス。
type MembersResponse struct {
	Members []Member `json:"members"`
	Count   int      `json:"count"`
}

// ClaimMemberRequest はメンバー紐付け申請のリクエストボディ。
type ClaimMemberRequest struct {
	NISN         string       `json:"nisn" validate:"required"`
	Name         string       `json:"name" validate:"required"`
	Relationship Relationship `json:"relationship" validate:"required,oneof=parent guardian other"`
}

// ClaimMemberResponse はメンバー紐付け申請のレスポンス。
type ClaimMemberResponse struct {
	ClaimStatus string `json:"claim_status"`
	Member      Member `json:"member"`
}

// LimitType は利用限度額の期間種別。
type LimitType string

const (
	LimitDaily          LimitType = "daily"
	LimitWeekly         LimitType = "weekly"
	LimitMonthly        LimitType = "monthly"
	LimitPerTransaction LimitType = "per_transaction"
)

// SpendingLimit はウォレットの利用限度額。
type SpendingLimit struct {
	ID        string    `json:"id"`
	LimitType LimitType `json:"limit_type"`
	Amount    string    `json:"amount"`
	IsActive  bool      `json:"is_active"`
}

// Wallet はメンバーのウォレット。金額は10進文字列で表される。
type Wallet struct {
	ID              string          `json:"id"`
	WalletType      string          `json:"wallet_type"`
	WalletTypeLabel string          `json:"wallet_type_label"`
	Balance         string          `json:"balance"`
	PendingBalance  string          `json:"pending_balance"`
	TotalBalance    string          `json:"total_balance"`
	Currency        string          `json:"currency"`
	IsPrimary       bool            `json:"is_primary"`
	IsActive        bool            `json:"is_active"`
	IsFrozen        bool            `json:"is_frozen"`
	FrozenReason    *string         `json:"frozen_reason"`
	StatusLabel     string          `json:"status_label"`
	SpendingLimits  []SpendingLimit `json:"spending_limits,omitempty"`
}

// WalletRef はレスポンスに埋め込まれるウォレットの要約。
type WalletRef struct {
	ID              string `json:"id"`
	WalletType      string `json:"wallet_type"`
	WalletTypeLabel string `json:"wallet_type_label,omitempty"`
}

// WalletsResponse はメンバーのウォレット一覧のレスポンス。
type WalletsResponse struct {
	Member       MemberRef `json:"member"`
	Wallets      []Wallet  `json:"wallets"`
	TotalBalance string    `json:"total_balance"`
}

// TopupRequest はウォレットへの入金リクエストボディ。
type TopupRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Password string `json:"password" validate:"required"`
	Notes    string `json:"notes,omitempty" validate:"max=255"`
}

// TopupResponse は入金結果。
type TopupResponse struct {
	Wallet struct {
		ID            string `json:"id"`
		WalletType    string `json:"wallet_type"`
		BalanceBefore string `json:"balance_before"`
		AmountAdded   string `json:"amount_added"`
		BalanceAfter  string `json:"balance_after"`
	} `json:"wallet"`
	Member MemberRef `json:"member"`
}

// TransactionItem は取引の明細行。
type TransactionItem struct {
	Product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"product"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// Tenant は取引先の店舗。
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transaction はウォレットの取引。
type Transaction struct {
	ID              string            `json:"id"`
	TransactionCode string            `json:"transaction_code"`
	TransactionType string            `json:"transaction_type"`
	Amount          string            `json:"amount"`
	Status          string            `json:"status"`
	Wallet          WalletRef         `json:"wallet"`
	Tenant          *Tenant           `json:"tenant,omitempty"`
	Items           []TransactionItem `json:"items,omitempty"`
	CreatedAt       string            `json:"created_at"`
}

// TransactionsResponse は取引履歴のレスポンス。
type TransactionsResponse struct {
	Member       MemberRef      `json:"member"`
	Transactions []Transaction  `json:"transactions"`
	Pagination   PaginationMeta `json:"pagination"`
}

// Deposit は入金履歴。
type Deposit struct {
	ID                 string    `json:"id"`
	DepositCode        string    `json:"deposit_code"`
	Amount             string    `json:"amount"`
	PaymentMethod      string    `json:"payment_method"`
	PaymentMethodLabel string    `json:"payment_method_label"`
	Status             string    `json:"status"`
	StatusLabel        string    `json:"status_label"`
	ProcessedAt        *string   `json:"processed_at"`
	CreatedAt          string    `json:"created_at"`
	Member             MemberRef `json:"member"`
	Wallet             WalletRef `json:"wallet"`
}

// DepositsResponse は入金履歴のレスポンス。
type DepositsResponse struct {
	Deposits   []Deposit      `json:"deposits"`
	Pagination PaginationMeta `json:"pagination"`
}

// CreateSpendingLimitRequest は利用限度額の作成リクエストボディ。
type CreateSpendingLimitRequest struct {
	WalletID  string    `json:"wallet_id" validate:"required"`
	LimitType LimitType `json:"limit_type" validate:"required,oneof=daily weekly monthly per_transaction"`
	Amount    int64     `json:"amount" validate:"required,gt=0"`
	IsActive  bool      `json:"is_active"`
}

// UpdateSpendingLimitRequest は利用限度額の更新リクエストボディ。
// nilのフィールドは送信しない。
type UpdateSpendingLimitRequest struct {
	Amount   *int64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	IsActive *bool  `json:"is_active,omitempty"`
}
