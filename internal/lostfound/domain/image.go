package domain

// Image is an acquired picture ready to be handed to a similarity provider.
type Image struct {
	Data     []byte
	MIMEType string
	// Name is the source URL or the uploaded file name.
	Name string
}

func (i Image) Empty() bool {
	return len(i.Data) == 0
}
