package entity

// Receipt extensions accepted by the new bill form, lower-cased with the leading dot
var ReceiptExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ReceiptUpload is the multipart payload staged for the create phase
type ReceiptUpload struct {
	FileName    string
	ContentType string
	Content     []byte
	Email       string
}

// Size returns the receipt size in bytes
func (u *ReceiptUpload) Size() int64 {
	return int64(len(u.Content))
}

// CreatedFile is what the store returns once a receipt has been uploaded
type CreatedFile struct {
	FileURL string `json:"fileUrl"`
	Key     string `json:"key"`
}

// User is the persisted session identity
type User struct {
	Type  string `json:"type"`
	Email string `json:"email" validate:"required,email"`
}
