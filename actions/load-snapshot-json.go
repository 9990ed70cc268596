package actions

var jsonLoadSnapshot = `{
  "schemaVersion": 1,
  "description": "load snapshot from the IMF DataMapper API to Snowflake",
  "connections": {
    "target": {
      "type": "snowflake",
      "logicalName": "${targetEnv}",
      "data": {
        "dsn": "${tgtDsn}"
      }
    }
  },
  "type": "${repeatTransform}",
  "repeatMetadata": {
    "sleepSeconds": ${sleepSeconds}
  },
  "transformGroups": {
    "optionalTruncateTarget": {
      "type": "sequential",
      "steps": {
        "generateRows": {
          "type": "GenerateRows",
          "data": {
            "fieldNamesValuesCSV": "\"#sqlText:truncate table ${targetObject}\"",
            "numRows": "${truncateTargetEnabled1orDisabled0}",
            "sleepIntervalSeconds": "0"
          }
        },
        "truncateTable": {
          "type": "SqlExec",
          "data": {
            "readDataFromStep": "generateRows",
            "databaseConnectionName": "target",
            "sqlQueryFieldName": "#sqlText"
          }
        }
      },
      "sequence": [
        "generateRows",
        "truncateTable"
      ]
    },
    "loadIndicators": {
      "type": "sequential",
      "steps": {
        "readApi": {
          "type": "IndicatorInput",
          "data": {
            "apiBaseUrl": "${apiBaseUrl}",
            "dataset": "${dataset}",
            "indicatorCodesCSV": "${indicatorCodes}",
            "apiTimeoutSeconds": "${apiTimeoutSeconds}"
          }
        },
        "filterYears": {
          "type": "FilterRows",
          "data": {
            "readDataFromStep": "readApi",
            "filterType": "JsonLogic",
            "filterMetadata": "${yearFilterRule}"
          }
        },
        "writeToTarget": {
          "type": "TableAppend",
          "data": {
            "readDataFromStep": "filterYears",
            "databaseConnectionName": "target",
            "outputSchemaName": "${targetSchema}",
            "outputTable": "${targetTable}",
            "keyCols": "INDICATOR:INDICATOR,COUNTRY_CODE:COUNTRY_CODE,YEAR:YEAR",
            "otherCols": "VALUE:VALUE,INGESTION_TIMESTAMP:INGESTION_TIMESTAMP",
            "commitBatchSize": "${commitBatchSize}",
            "txtBatchNumRows": "1000",
            "outputFieldName4RowsAppended": "#rowsAppended"
          }
        }
      },
      "sequence": [
        "readApi",
        "filterYears",
        "writeToTarget"
      ]
    }
  },
  "sequence": [
    "optionalTruncateTarget",
    "loadIndicators"
  ]
}`
