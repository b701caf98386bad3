package intake

import "creators-club/internal/common/validation"

const applicationSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["name", "email", "phone", "instagram", "currentStatus", "goal"],
  "properties": {
    "name":          {"type": "string", "minLength": 1, "maxLength": 120, "pattern": "\\S"},
    "email":         {"type": "string", "format": "email", "maxLength": 254},
    "phone":         {"type": "string", "pattern": "^[+()\\d\\s.-]{8,24}$"},
    "instagram":     {"type": "string", "minLength": 1, "maxLength": 64, "pattern": "\\S"},
    "currentStatus": {"type": "string", "enum": ["comecando", "iniciante", "intermediario", "avancado"]},
    "goal":          {"type": "string", "minLength": 1, "maxLength": 2000, "pattern": "\\S"}
  }
}`

var applicationSchema = validation.MustCompile(applicationSchemaJSON)
