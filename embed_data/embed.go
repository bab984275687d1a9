package embed_data

import _ "embed"

//go:embed prompts/tech_detection_prompt.tmpl
var TechDetectionPrompt []byte

//go:embed prompts/ignore_patterns_prompt.tmpl
var IgnorePatternsPrompt []byte

//go:embed prompts/identify_functions_prompt.tmpl
var IdentifyFunctionsPrompt []byte

//go:embed prompts/function_details_prompt.tmpl
var FunctionDetailsPrompt []byte

//go:embed prompts/file_flow_prompt.tmpl
var FileFlowPrompt []byte

//go:embed prompts/chat_system_prompt.tmpl
var ChatSystemPrompt []byte

//go:embed queries/go.json
var GoQuery []byte

//go:embed queries/python.json
var PythonQuery []byte

//go:embed queries/javascript.json
var JavascriptQuery []byte

//go:embed queries/typescript.json
var TypescriptQuery []byte

//go:embed models_details.json
var ModelDetails []byte
