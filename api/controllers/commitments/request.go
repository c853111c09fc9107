package commitments

type lineRequest struct {
	Size     string `json:"size" validate:"required,max=64"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type createCommitmentRequest struct {
	SizeCommitments []lineRequest `json:"sizeCommitments" validate:"required,min=1,dive"`
}

type updateStatusRequest struct {
	Status              string  `json:"status" validate:"required,oneof=approved declined"`
	DistributorResponse *string `json:"distributorResponse" validate:"omitempty,max=2000"`
}

type bulkDecisionRequest struct {
	Status              string  `json:"status" validate:"required,oneof=approved declined"`
	DistributorResponse *string `json:"distributorResponse" validate:"omitempty,max=2000"`
}

type decisionChangeRequest struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
	Reason string  `json:"reason" validate:"required,max=500"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}
