package crmleadcreate

import "creators-club/internal/common/validation"

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["name", "email"],
  "properties": {
    "applicationId": {"type": "string"},
    "name":          {"type": "string", "minLength": 1, "maxLength": 120},
    "email":         {"type": "string", "format": "email"},
    "phone":         {"type": "string", "maxLength": 24},
    "instagram":     {"type": "string", "maxLength": 64},
    "currentStatus": {"type": "string"},
    "goal":          {"type": "string"}
  }
}`)
