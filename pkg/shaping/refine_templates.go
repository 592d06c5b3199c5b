package shaping

// refinementTemplates holds one template per refinement action. Every
// template states the issues, echoes the required schema, and requests a
// corrected response only.
var refinementTemplates = map[Action]Template{
	ActionClarifyFormat: {
		Name: "clarify_format",
		Text: `Your previous reply did not follow the required format.

Problems found:
{issues}

{schema}

Resend the complete answer. Reply with the corrected response only, nothing else.`,
	},

	ActionRequestMissingData: {
		Name: "request_missing_data",
		Text: `Your previous reply was missing required data.

Problems found:
{issues}

{schema}

Include every required field this time. Reply with the corrected response only.`,
	},

	ActionFixStructure: {
		Name: "fix_structure",
		Text: `Your previous reply had the right content but the wrong structure.

Problems found:
{issues}

{schema}

Restructure your answer to match exactly. Reply with the corrected response only.`,
	},

	ActionProvideExamples: {
		Name: "provide_examples",
		Text: `Your previous reply did not validate.

Problems found:
{issues}

{schema}

A valid response looks like this:
{example}

Follow that shape exactly with your actual answer. Reply with the corrected response only.`,
	},

	ActionSimplifyRequest: {
		Name: "simplify_request",
		Text: `Answer this simplified version of the earlier request:

{previous_prompt}

{schema}

Keep the answer minimal: required fields only, no commentary. Reply with the response only.`,
	},

	ActionSplitRequest: {
		Name: "split_request",
		Text: `The earlier request may have been too broad. Answer only the first part of it now:

{previous_prompt}

{schema}

Reply with the response for that part only, in the required format.`,
	},
}
