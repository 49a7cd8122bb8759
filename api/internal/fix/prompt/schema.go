package prompt

// Response schemas given to the model verbatim. Only risk is required in
// SolutionSchema; the conditional field split is enforced in the prose rules
// and re-checked client-side (types.Solution.Validate).

const SolutionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "SOLUTION.response.v1",
  "type": "object",
  "properties": {
    "risk": { "type": "string", "enum": ["Low", "Medium", "High"] },
    "safetyWarning": { "type": "string", "description": "Present iff risk is High." },
    "diagnosis": { "type": "string" },
    "tools": { "type": "array", "items": { "type": "string" } },
    "instructions": {
      "type": "array",
      "items": { "type": "string" },
      "description": "Ordered steps. First step may be prefixed with 'SAFETY: '."
    },
    "difficulty": { "type": "string", "enum": ["Easy", "Moderate", "Hard"] },
    "estimatedTime": { "type": "string" },
    "potentialPitfalls": { "type": "string" }
  },
  "required": ["risk"]
}`

const PartSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "PART.response.v1",
  "type": "object",
  "properties": {
    "partName": { "type": "string" },
    "modelNumber": { "type": "string" },
    "description": { "type": "string" },
    "purchaseLocations": { "type": "array", "items": { "type": "string" } },
    "installationVideo": { "type": "string", "format": "uri" }
  },
  "required": ["partName", "description", "purchaseLocations"]
}`

const VerifySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "VERIFY.response.v1",
  "type": "object",
  "properties": {
    "isCorrect": { "type": "boolean" },
    "feedback": { "type": "string" }
  },
  "required": ["isCorrect", "feedback"]
}`
