package internal

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/zerohour-app/zerohour-api/internal/mailer"
)

// Recoverer converts handler panics into 500 responses and notifies the
// admin by mail. The mail is sent off the request path.
func Recoverer(m *mailer.Mailer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				stack := debug.Stack()
				log.Printf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, stack)

				go func() {
					subject := "ZeroHour API panic: " + r.URL.Path
					body := fmt.Sprintf("%v\n\n%s", rec, stack)
					if err := m.Send(subject, body); err != nil {
						log.Printf("%v", err)
					}
				}()

				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
