package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/checkin"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/qrcode"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/registration"
)

// DatabaseMiddleware makes the gorm handle available to handlers.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}

func GetDB(c *gin.Context) *gorm.DB {
	db, exists := c.Get("db")
	if !exists {
		return nil
	}
	return db.(*gorm.DB)
}

// LedgerMiddleware injects the registration ledger.
func LedgerMiddleware(ledger *registration.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("ledger", ledger)
		c.Next()
	}
}

func GetLedger(c *gin.Context) *registration.Ledger {
	ledger, exists := c.Get("ledger")
	if !exists {
		return nil
	}
	return ledger.(*registration.Ledger)
}

// CheckinMiddleware injects the check-in service.
func CheckinMiddleware(service *checkin.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("checkin_service", service)
		c.Next()
	}
}

func GetCheckinService(c *gin.Context) *checkin.Service {
	service, exists := c.Get("checkin_service")
	if !exists {
		return nil
	}
	return service.(*checkin.Service)
}

// CodecMiddleware injects the verification codec.
func CodecMiddleware(codec *qrcode.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("codec", codec)
		c.Next()
	}
}

func GetCodec(c *gin.Context) *qrcode.Codec {
	codec, exists := c.Get("codec")
	if !exists {
		return nil
	}
	return codec.(*qrcode.Codec)
}
