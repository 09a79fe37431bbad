package adapthttp

import "net/http"

func (s *Server) handleUploadAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	creds := s.media.UploadAuth()
	writeJSON(w, http.StatusOK, map[string]any{
		"token":       creds.Token,
		"expire":      creds.Expire,
		"signature":   creds.Signature,
		"publicKey":   s.media.PublicKey(),
		"urlEndpoint": s.media.URLEndpoint(),
	})
}
