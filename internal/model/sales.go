package model

// SaleStatus は売上の承認状態を表す。
type SaleStatus string

const (
	SaleStatusPending  SaleStatus = "pending"
	SaleStatusApproved SaleStatus = "approved"
)

// PersonRef は売上レコードに埋め込まれる担当者の参照。
type PersonRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Sale は1件の売上（保険契約）を表す。
type Sale struct {
	ID            string     `json:"_id"`
	PolicyNumber  string     `json:"policy_number"`
	VehicleNumber string     `json:"vehicle_number"`
	Salesperson   *PersonRef `json:"salesperson_id,omitempty"`
	TeamLead      *PersonRef `json:"team_lead_id,omitempty"`
	Date          string     `json:"date"`
	Status        SaleStatus `json:"status"`
}

// SaleInput は売上の登録・編集リクエストの内容。
type SaleInput struct {
	PolicyNumber  string `json:"policy_number"`
	VehicleNumber string `json:"vehicle_number"`
	SalespersonID string `json:"salesperson_id"`
	Date          string `json:"date"`
}

// Pagination はバックエンドのページング情報。
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

// SalesPage は売上一覧の1ページ分。
type SalesPage struct {
	Sales      []Sale     `json:"sales"`
	Pagination Pagination `json:"pagination"`
}

// SalesFilter は売上一覧とレポート出力の絞り込み条件。
// 空文字のフィールドは条件に含めない。
type SalesFilter struct {
	Page          int
	Limit         int
	From          string
	To            string
	TeamLeadID    string
	SalespersonID string
}

// Salesperson は営業担当者を表す。
type Salesperson struct {
	ID       string     `json:"_id"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone"`
	TeamLead *PersonRef `json:"team_lead_id,omitempty"`
}

// SalespersonInput は営業担当者の登録内容。
type SalespersonInput struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password,omitempty"`
	TeamLeadID string `json:"team_lead_id,omitempty"`
}

// Member はチームリーダーまたは管理者アカウントを表す。
type Member struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// MemberInput はチームリーダー・管理者アカウントの登録内容。
type MemberInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
