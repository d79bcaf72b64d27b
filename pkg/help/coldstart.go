package help

const ColdstartYAML = `# gtally Quick Start

input_formats:
  json: "One document, an object keyed by record id or an array of records"
  jsonl: "One record per line (.jsonl, .ndjson)"
  sqlite: "A table with one row per record and the tags as JSON text (.db, .sqlite)"

output_formats:
  text: "Human readable ranking (default)"
  json: "Report that 'gtally merge' can read back"
  yaml: "Same report as YAML"

commands:
  basic_count: |
    gtally count tmdb.json

  top_genres: |
    gtally count --top 5 tmdb.json

  other_field: |
    gtally count --field keywords tmdb.json

  parallel: |
    gtally count --workers 8 tmdb.json

  from_sqlite: |
    gtally count --sqlite-table movies --sqlite-column genres movies.db

  partial_reports: |
    gtally count --format json --output out/part1.json part1.jsonl
    gtally count --format json --output out/part2.json part2.jsonl
    gtally merge --top 10 out/part1.json out/part2.json

exit_codes:
  0: "Success, including inputs with no categories"
  1: "Invalid flags or configuration"
  2: "Input or report could not be read or parsed"

usage: "Flags go before the input file or report files"

config:
  file: "--config gtally.yaml (keys: input, input_format, field, id_key, workers, top, min_count, format, output, sqlite)"
  env: "GTALLY_* variables, read from .env when present"
  precedence: "flags > env > config file > defaults"
`
