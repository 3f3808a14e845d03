package models

// StepType discriminates the step variant carried by an action node.
// Dispatch over step types is closed: the registry rejects unknown types
// at graph activation, not at execution time.
type StepType string

// Browser steps.
const (
	StepTypeNavigate         StepType = "navigate"
	StepTypeClick            StepType = "click"
	StepTypeInput            StepType = "input"
	StepTypeExtractText      StepType = "extractText"
	StepTypeExtractAttribute StepType = "extractAttribute"
	StepTypeScroll           StepType = "scroll"
	StepTypeHover            StepType = "hover"
	StepTypeSelectOption     StepType = "selectOption"
	StepTypeUploadFile       StepType = "uploadFile"
	StepTypeScreenshot       StepType = "screenshot"
	StepTypeWaitForElement   StepType = "waitForElement"
	StepTypePressKey         StepType = "pressKey"
	StepTypeGoBack           StepType = "goBack"
	StepTypeRefresh          StepType = "refresh"
	StepTypeWait             StepType = "wait"
)

// Variable steps.
const (
	StepTypeSetVariable    StepType = "setVariable"
	StepTypeModifyVariable StepType = "modifyVariable"
	StepTypeDeleteVariable StepType = "deleteVariable"
)

// Outbound call steps.
const (
	StepTypeAPICall    StepType = "apiCall"
	StepTypeRunCommand StepType = "runCommand"
)

// Chat service steps.
const (
	StepTypeChatSendMessage   StepType = "chatSendMessage"
	StepTypeChatUpdateMessage StepType = "chatUpdateMessage"
	StepTypeChatDeleteMessage StepType = "chatDeleteMessage"
	StepTypeChatAddReaction   StepType = "chatAddReaction"
	StepTypeChatListMessages  StepType = "chatListMessages"
)

// Micro-blog service steps.
const (
	StepTypeMicroblogPost    StepType = "microblogPost"
	StepTypeMicroblogDelete  StepType = "microblogDelete"
	StepTypeMicroblogLike    StepType = "microblogLike"
	StepTypeMicroblogReshare StepType = "microblogReshare"
	StepTypeMicroblogSearch  StepType = "microblogSearch"
	StepTypeMicroblogDM      StepType = "microblogDM"
)

// AI steps.
const (
	StepTypeAICompletion StepType = "aiCompletion"
)

// Step is the tagged action record carried by a step node. Config holds the
// variant-specific fields (selectors, URLs, templated strings, credential
// references) and is validated against the handler's schema at creation time.
type Step struct {
	Type   StepType       `json:"type" validate:"required"`
	Config map[string]any `json:"config"`
}
