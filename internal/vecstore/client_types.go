package vecstore

type createIndexRequest struct {
	Name string `json:"name"`
}

type IndexResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ObjectResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

type attachRequest struct {
	FileID string `json:"file_id"`
}
