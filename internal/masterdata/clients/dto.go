package clients

type clientRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=20"`
	Address  string `json:"address"`
	GSTIN    string `json:"gstin" validate:"omitempty,len=15"`
	IsActive *bool  `json:"is_active"`
}

func (req clientRequest) toClient() Client {
	c := Client{Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address, GSTIN: req.GSTIN, IsActive: true}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	return c
}

type clientResponse struct {
	Client
	Initials string `json:"initials"`
}

func toResponse(c Client) clientResponse {
	return clientResponse{Client: c, Initials: c.Initials()}
}
