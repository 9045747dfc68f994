package provider

import (
	"fmt"
	"strings"
)

const structureSystemPrompt = "You are a JSON generator. Return only valid JSON without any markdown formatting or additional text."

const analysisSystemPrompt = "You are an expert academic paper analyzer with deep technical knowledge. " +
	"Create a comprehensive analysis that maintains the paper's logical flow while integrating detailed " +
	"technical content, quantitative results and figure descriptions. Focus on accuracy and completeness."

const structureTemplate = `Analyze this academic paper and extract its exact structure.
Return ONLY the JSON structure with the following format:
{
  "title": "paper title",
  "sections": [
    {
      "title": "section title",
      "content": [
        {
          "subtitle": "subsection title",
          "points": ["point 1", "point 2"],
          "figures": ["Figure X"]
        }
      ]
    }
  ]
}

Paper text:
%s
`

const analysisTemplate = `Perform a comprehensive analysis of this academic paper. For each section give:

1. Section overview: the main objective, key concepts and critical findings.
2. Content analysis per logical subsection: the core argument with specific numbers,
   supporting evidence, technical details and methodology, and the impact on the paper's narrative.
3. Figure analysis in context: what each figure shows, the specific results, the technical
   details it illustrates and how it supports the argument. Reference figures exactly as the
   paper does, for example "Figure 3".

Return the analysis in this JSON format:
{
  "title": "paper title",
  "sections": [
    {
      "title": "section title",
      "overview": "section's main points and role",
      "content": [
        {
          "subtitle": "logical subsection title",
          "key_points": [
            {
              "argument": "main argument or finding",
              "evidence": "supporting evidence with numbers",
              "technical_details": "methodology or implementation",
              "implications": "impact on overall narrative"
            }
          ],
          "figures": [
            {
              "reference": "Figure X",
              "description": "comprehensive description",
              "technical_content": "methods and approach shown",
              "results": "specific findings and measurements",
              "integration": "how it supports the argument",
              "panel_details": ["panel a details", "panel b details"]
            }
          ]
        }
      ]
    }
  ]
}

Keep the paper's section order and include all quantitative details.

Paper structure:
%s

Paper text:
%s
`

func structurePrompt(text string) string {
	return fmt.Sprintf(structureTemplate, text)
}

func analysisPrompt(structure, text string) string {
	return fmt.Sprintf(analysisTemplate, strings.TrimSpace(structure), text)
}
