package middleware

import "net/http"

// NewCORSMiddleware は指定されたオリジンに対するCORSミドルウェアを返す。
// 認証を持たないAPIのためcredentialsは許可しない。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
