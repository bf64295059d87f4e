package requests

type InitializePayment struct {
	InstitutionID string `json:"institution_id" validate:"required"`
	StudentID     string `json:"student_id" validate:"required"`
	SessionID     string `json:"session_id" validate:"required"`
}

type VerifyPayment struct {
	InstitutionID string `json:"institution_id" validate:"required"`
	Reference     string `json:"reference" validate:"required"`
}
