package synthesis

// issuePrompt is the fixed task instruction sent with every generation
// request. The document is appended after the instruction; the model is
// asked for JSON only, which the caller still treats as untrusted.
const issuePrompt = `You are an experienced software engineer and tech lead.
Decompose the requirement document below into concrete, implementable tasks
from an implementer's point of view.

Decomposition policy:
1. Granularity: each task should be completable in 1-3 days.
2. Classify by technical area: frontend, backend, database, infrastructure,
   testing, documentation.
3. Make dependencies explicit: note prerequisite tasks and tasks that can
   run in parallel.
4. Include technical detail: technologies, architecture, implementation
   patterns, and likely file or directory names.
5. Give code-level acceptance criteria that are testable and verifiable.

Granularity guide:
- Bad: "Implement user authentication"
- Good: "Implement JWT authentication middleware", "Build login form UI",
  "Write tests for the authentication API"

Output format (JSON only, no surrounding prose):
{
  "issues": [
    {
      "title": "Backend: implement JWT authentication middleware",
      "body": "## Summary\n...\n\n## Acceptance criteria\n- [ ] ...",
      "labels": ["backend", "auth"],
      "priority": 1
    }
  ]
}

Rules:
- Produce 15-25 tasks.
- priority is an integer from 1 (highest) to 5 (lowest).
- Respond with JSON only. Do not include explanations.

Requirement document:

`
