package verification

import (
	"fmt"
	"time"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

const otpEmailSubject = "Salem Farm - Your verification code"

const otpEmailHTML = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; background: #fffaf0; padding: 24px;">
    <div style="max-width: 480px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
      <h2 style="color: #e67e22; margin-top: 0;">Salem Farm</h2>
      <p>Use the following code to continue. It expires in %s.</p>
      <p style="font-size: 32px; letter-spacing: 6px; font-weight: bold; color: #2d3436;">%s</p>
      <p style="color: #636e72; font-size: 12px;">If you did not request this code you can ignore this email.</p>
    </div>
  </body>
</html>`

func renderOTPEmail(code string, ttl time.Duration) string {
	return fmt.Sprintf(otpEmailHTML, domain.FormatValidity(ttl), code)
}
