package utils

// localizedMessages are the user-facing (Thai) texts for API error codes.
// Technical detail never goes into these; it is logged instead.
var localizedMessages = map[string]string{
	"UNAUTHORIZED":          "กรุณาเข้าสู่ระบบก่อนใช้งาน",
	"INVALID_TOKEN":         "เซสชันไม่ถูกต้องหรือหมดอายุ กรุณาเข้าสู่ระบบใหม่",
	"FORBIDDEN":             "คุณไม่มีสิทธิ์ดำเนินการนี้",
	"USER_NOT_FOUND":        "ไม่พบข้อมูลผู้ใช้ กรุณาสร้างโปรไฟล์ก่อน",
	"VALIDATION_ERROR":      "ข้อมูลไม่ถูกต้อง กรุณาตรวจสอบอีกครั้ง",
	"INVALID_ID_NUMBER":     "เลขบัตรประชาชนต้องเป็นตัวเลข 13 หลัก",
	"INVALID_PHONE":         "เบอร์โทรศัพท์ต้องเป็นตัวเลข 10 หลัก",
	"INVALID_HOURS":         "จำนวนชั่วโมงต้องอยู่ระหว่าง 1 ถึง 36",
	"INVALID_ORDER_TYPE":    "ประเภทบริการไม่ถูกต้อง",
	"INVALID_STATUS":        "สถานะคำสั่งซื้อไม่ถูกต้อง",
	"INVALID_EMAIL":         "รูปแบบอีเมลไม่ถูกต้อง",
	"ORDER_NOT_FOUND":       "ไม่พบคำสั่งซื้อ",
	"ORDER_COMPLETED":       "ไม่สามารถแก้ไขคำสั่งซื้อที่เสร็จสิ้นแล้ว",
	"SLIP_ALREADY_ATTACHED": "คำสั่งซื้อนี้มีสลิปการชำระเงินแล้ว",
	"SLIP_NOT_FOUND":        "ไม่พบสลิปการชำระเงิน",
	"FILE_REQUIRED":         "กรุณาแนบไฟล์รูปภาพ",
	"FILE_TOO_LARGE":        "ไฟล์มีขนาดใหญ่เกินไป (สูงสุด 10 MB)",
	"INVALID_FILE_FORMAT":   "รองรับเฉพาะไฟล์ PNG, JPEG และ WEBP",
	"INVALID_FILE_CONTENT":  "ไฟล์ที่อัพโหลดไม่ใช่รูปภาพที่ถูกต้อง",
	"INVALID_FILENAME":      "ชื่อไฟล์ไม่ถูกต้อง",
	"FILE_NOT_FOUND":        "ไม่พบรูปภาพ",
	"UPLOAD_FAILED":         "อัพโหลดรูปภาพไม่สำเร็จ กรุณาลองใหม่อีกครั้ง",
	"DATABASE_ERROR":        "เกิดข้อผิดพลาดในระบบ กรุณาลองใหม่อีกครั้ง",
	"INVALID_CREDENTIAL":    "อีเมลหรือรหัสผ่านไม่ถูกต้อง",
	"EMAIL_IN_USE":          "อีเมลนี้ถูกใช้งานแล้ว",
	"TOO_MANY_REQUESTS":     "มีการพยายามเข้าสู่ระบบหลายครั้งเกินไป กรุณาลองใหม่ภายหลัง",
	"WEAK_PASSWORD":         "รหัสผ่านต้องมีความยาวอย่างน้อย 6 ตัวอักษร",
	"NETWORK_FAILURE":       "ไม่สามารถเชื่อมต่อเครือข่ายได้ กรุณาตรวจสอบการเชื่อมต่อ",
	"AUTH_ERROR":            "เกิดข้อผิดพลาดในการยืนยันตัวตน กรุณาลองใหม่อีกครั้ง",
	"SESSION_EXPIRED":       "หมดเวลาการใช้งาน กรุณาเข้าสู่ระบบใหม่",
	"SESSION_UNAVAILABLE":   "ระบบติดตามการใช้งานไม่พร้อมใช้งาน กรุณาลองใหม่อีกครั้ง",
}

const defaultLocalizedMessage = "เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง"

// LocalizedMessage returns the user-facing message for an error code
func LocalizedMessage(code string) string {
	if msg, ok := localizedMessages[code]; ok {
		return msg
	}
	return defaultLocalizedMessage
}
